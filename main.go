package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"blogsync/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args and exits with the command's status.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	// Leading glog flags (-v, -logtostderr) come before the command.
	args := os.Args[1:]
	if strings.HasPrefix(args[0], "-") && args[0] != "-h" && args[0] != "--help" {
		flag.CommandLine.Parse(args)
		args = flag.Args()
	}
	if len(args) == 0 {
		printHelp()
		exit(1)
		return
	}

	switch strings.ToLower(args[0]) {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("blogsync version %s\n", CliVersion)
	default:
		exit(service.HandleCommand(args))
	}
}

func printHelp() {
	helpText := `Usage: blogsync [glog flags] <command> [options]
Commands:
  help                             Display this help message.
  version                          Show version information.
  signup|login <email> --password  Create an account or sign in.
  logout|whoami                    End or show the current session.
  posts [--search=<q>] [--mine]    List posts, most recent first.
  show <id>                        Show a post and its comments.
  publish|edit|delete|like         Change posts.
  comment|comment-edit|comment-delete
                                   Change comments.
  init|clean|backup|restore        Maintain the local database.

Run 'blogsync --help' for the full syntax.
`
	fmt.Println(helpText)
}
