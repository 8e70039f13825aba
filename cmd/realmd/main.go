package main

import "github.com/craftrealm/realm-api/internal/cli"

func main() {
	cli.Execute()
}
