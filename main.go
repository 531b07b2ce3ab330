package main

import "github.com/KunevinnDokus/tourism-database-system/cmd"

func main() {
	cmd.Execute()
}
