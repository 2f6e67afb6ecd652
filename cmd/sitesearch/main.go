// Package main provides the entry point for the sitesearch CLI.
//
// sitesearch crawls the websites listed in its configuration file, builds a
// lemma index of their pages and answers ranked search queries over HTTP or
// from the command line.
//
// Usage:
//
//	sitesearch init
//	sitesearch serve
//	sitesearch index
//	sitesearch search <query>
//
// See --help for all available options.
package main

// main is the entry point for sitesearch.
func main() {
	Execute()
}
