// Command recipes is the terminal front end of the recipe box: it searches
// the remote catalogue together with the saved recipes and manages the
// local collection.
package main

import "os"

func main() {
	if err := newRootCmd(&app{out: os.Stdout, in: os.Stdin}).Execute(); err != nil {
		os.Exit(1)
	}
}
