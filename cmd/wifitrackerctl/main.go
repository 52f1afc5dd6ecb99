// Command wifitrackerctl drives the Wi-Fi tracking engine in-process
// against a simulated platform, for inspecting entry views and issuing
// connect/disconnect/forget operations without a running daemon.
package main

import "github.com/dantte-lp/wifitracker/cmd/wifitrackerctl/commands"

func main() {
	commands.Execute()
}
