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
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func payloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Manage execution payloads",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "submit <file>",
			Short: "Store an execution payload and print its hash",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := mustConfig(cmd)
				payload, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("reading payload: %w", err)
				}
				return withStore(cfg, func(s *store) error {
					hash, err := s.gov.SubmitPayload(nil, payload)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(hash))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <proposal-id>",
			Short: "Write the approved execution payload of a proposal to stdout",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := mustConfig(cmd)
				proposalID, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid proposal ID: %w", err)
				}
				return withStore(cfg, func(s *store) error {
					payload, err := s.gov.ApprovedPayload(nil, proposalID)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(payload)
					return err
				})
			},
		},
	)
	return cmd
}
