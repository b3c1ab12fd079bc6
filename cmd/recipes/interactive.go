package main

import (
	"bufio"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	searchUC "recipe-box/internal/usecase/search"
)

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Search as you type, one query per line",
		Long: `Interactive reads one query per line and prints the merged results.
A new line cancels the search still running for the previous one, and its
results are dropped. Type "quit" or send EOF to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := searchUC.NewSession(a.search)
			defer session.Close()

			var (
				wg sync.WaitGroup
				mu sync.Mutex
			)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			cmd.Println(a.term.Notice(`Type a dish or ingredient, "quit" to leave.`))
			for scanner.Scan() {
				query := strings.TrimSpace(scanner.Text())
				if query == "" {
					continue
				}
				if query == "quit" || query == "exit" {
					break
				}

				wg.Add(1)
				go func(query string) {
					defer wg.Done()
					out := session.Search(cmd.Context(), query)
					if out.Stale {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					// Re-checked under the print lock: a newer query may have started meanwhile.
					if out.Generation != session.Generation() {
						return
					}
					printResult(cmd, a, out.Result)
				}(query)
			}
			wg.Wait()
			return scanner.Err()
		},
	}
}
