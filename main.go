package main

import "pdfquery/cmd"

func main() {
	cmd.Execute()
}
