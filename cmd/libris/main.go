/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/vramos/libris/cmd/libris/cmd"
)

func main() {
	cmd.Execute()
}
