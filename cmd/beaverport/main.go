// Command beaverport exports, upgrades and imports beaverlog data.
package main

import "github.com/mesh-intelligence/beaverport/internal/cli"

func main() {
	cli.Execute()
}
