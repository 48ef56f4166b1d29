/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/trajkit/trajkit/state"
)

var optReportsAll bool

// reportsCmd represents the reports command
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show run reports from the datadir",
	Long: `Print run reports as JSON; the latest by default, all with --all.

Examples:

  trajkit reports | jq .clusters
  trajkit reports --all | jq -r '[.started_at, .trajectories, .clusters] | @tsv'
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		store, err := state.NewReportStore(optDatadir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()

		enc := json.NewEncoder(os.Stdout)
		if optReportsAll {
			reports, err := store.Reports()
			if err != nil {
				log.Fatal(err)
			}
			for _, r := range reports {
				if err := enc.Encode(r); err != nil {
					log.Fatal(err)
				}
			}
			return
		}

		r, err := store.LastReport()
		if err != nil {
			log.Fatal(err)
		}
		if err := enc.Encode(r); err != nil {
			log.Fatal(err)
		}
		cmd.PrintErrf("points: %s, elapsed: %s\n",
			humanize.Comma(int64(r.Points)), r.Elapsed.Round(time.Millisecond))
	},
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.PersistentFlags().BoolVar(&optReportsAll, "all", false, "Print all reports, oldest first")
	reportsCmd.PersistentFlags().StringVar(&optDatadir, "datadir", "", "Datadir for run reports (default ~/.trajkit)")
}
