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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/governance"
)

func initCommand() *cobra.Command {
	var reserved []string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the governance store with the configured parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			params, err := cfg.Governance.Params()
			if err != nil {
				return err
			}
			addrs := make([]governance.Address, 0, len(reserved))
			for _, tmp := range reserved {
				addr, err := governance.ParseAddress(tmp)
				if err != nil {
					return err
				}
				addrs = append(addrs, addr)
			}
			return withStore(cfg, func(s *store) error {
				// All or nothing
				err := s.db.Transaction(true).Do(func(txn *database.Txn) error {
					signerCap, err := s.gov.Initialize(
						txn,
						governance.FrameworkAddress,
						params,
					)
					if err != nil {
						return err
					}
					if cfg.Governance.PartialVoting {
						if err := s.gov.InitializePartialVoting(txn, signerCap); err != nil {
							return err
						}
					}
					for _, addr := range addrs {
						if err := s.gov.StoreSignerCapability(txn, signerCap, addr); err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"governance store initialized (voting duration %ds, proposer stake %d, min voting threshold %s)\n",
					params.VotingDurationSecs,
					params.RequiredProposerStake,
					params.MinVotingThreshold,
				)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(
		&reserved,
		"signer",
		nil,
		"reserved address to store a signer capability for (repeatable)",
	)
	return cmd
}
