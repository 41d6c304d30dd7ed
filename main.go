/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/fc-integration/inventory/cmd"

func main() {
	cmd.Execute()
}
