// Package config provides configuration structures and utilities for sitesearch.
// It defines the crawl and index settings, the list of sites to index, and the
// server, database and log options, loaded from a YAML file.
package config
