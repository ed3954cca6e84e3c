package main

import "github.com/llamicron/lab-grader/internal/cli"

func main() {
	cli.Execute()
}
