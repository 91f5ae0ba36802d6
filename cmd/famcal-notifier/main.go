package main

import "github.com/oshokin/famcal-notifier/cmd/famcal-notifier/cmd"

func main() {
	cmd.Execute()
}
