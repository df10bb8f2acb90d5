// Command taskflow is a personal task manager with an optional AI advisor.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		fatal(err)
		os.Exit(1)
	}
}
