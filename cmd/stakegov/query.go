// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/stakegov/event"
	"github.com/blinklabs-io/stakegov/governance"
)

type paramsOutput struct {
	MinVotingThreshold    string `yaml:"minVotingThreshold"`
	RequiredProposerStake uint64 `yaml:"requiredProposerStake"`
	VotingDurationSecs    uint64 `yaml:"votingDurationSecs"`
	PartialVoting         bool   `yaml:"partialVoting"`
	ModuleEvents          bool   `yaml:"moduleEvents"`
}

func writeYaml(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func paramsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Show the stored governance parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			return withStore(cfg, func(s *store) error {
				params, err := s.gov.Params(nil)
				if err != nil {
					return err
				}
				features := s.gov.Features()
				return writeYaml(cmd.OutOrStdout(), paramsOutput{
					MinVotingThreshold:    params.MinVotingThreshold.String(),
					RequiredProposerStake: params.RequiredProposerStake,
					VotingDurationSecs:    params.VotingDurationSecs,
					PartialVoting:         features.PartialVoting,
					ModuleEvents:          features.ModuleEvents,
				})
			})
		},
	}
}

func approvedHashesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approved-hashes",
		Short: "List the approved execution hash of each proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			return withStore(cfg, func(s *store) error {
				hashes, err := s.gov.ApprovedHashes(nil)
				if err != nil {
					return err
				}
				ids := make([]uint64, 0, len(hashes))
				for id := range hashes {
					ids = append(ids, id)
				}
				slices.Sort(ids)
				for _, id := range ids {
					fmt.Fprintf(
						cmd.OutOrStdout(),
						"%d\t%s\n",
						id,
						hex.EncodeToString(hashes[id]),
					)
				}
				return nil
			})
		},
	}
}

func voteRecordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vote-record <stake-pool> <proposal-id>",
		Short: "Show the votes recorded for a stake pool on a proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			pool, err := governance.ParseAddress(args[0])
			if err != nil {
				return err
			}
			proposalID, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal ID: %w", err)
			}
			return withStore(cfg, func(s *store) error {
				record, err := s.gov.VoteRecord(nil, pool, proposalID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case record == nil:
					fmt.Fprintln(out, "no votes")
				case record.Kind == governance.VoteKindFullyVoted:
					fmt.Fprintf(out, "fully voted (%d votes)\n", record.Power)
				default:
					fmt.Fprintf(out, "partially voted (%d votes spent)\n", record.Power)
				}
				return nil
			})
		},
	}
}

func eventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events [event-type]",
		Short: "List the durable governance event log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			var eventType event.EventType
			if len(args) > 0 {
				eventType = event.EventType(args[0])
			}
			return withStore(cfg, func(s *store) error {
				events, err := s.gov.Events(nil, eventType)
				if err != nil {
					return err
				}
				for _, evt := range events {
					fmt.Fprintf(
						cmd.OutOrStdout(),
						"%s\t%d\t%s\n",
						evt.EventType,
						evt.SequenceNumber,
						evt.Data,
					)
				}
				return nil
			})
		},
	}
}
