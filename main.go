package main

import "github.com/felo/mail2pdf/internal/cli"

func main() {
	cli.Execute()
}
