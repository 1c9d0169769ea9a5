package main

import "github.com/pfrederiksen/trico-scraper/internal/cli"

func main() {
	cli.Execute()
}
