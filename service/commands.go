package service

import (
	"context"
	"errors"
	"fmt"

	"blogsync/app/apperr"
	"blogsync/app/auth"
	"blogsync/app/config"

	"github.com/docopt/docopt-go"
)

const usage = `blogsync keeps a local view of a blog in sync with its document store.

Usage:
    blogsync signup <email> --password=<password>
    blogsync login <email> --password=<password>
    blogsync logout
    blogsync whoami
    blogsync posts [--search=<query>] [--mine]
    blogsync show <id>
    blogsync publish --title=<title> --content=<content>
    blogsync edit <id> [--title=<title>] [--content=<content>]
    blogsync delete <id>
    blogsync like <id>
    blogsync comment <post-id> <text>
    blogsync comment-edit <id> <text>
    blogsync comment-delete <id>
    blogsync init
    blogsync clean
    blogsync backup
    blogsync restore <file>
    blogsync -h | --help

Options:
    -h --help                Show this screen.
    --password=<password>    Account password.
    --search=<query>         Only posts whose title, content or author contains query.
    --mine                   Only posts written by the signed-in user.
    --title=<title>          Post title.
    --content=<content>      Post body. Newlines separate paragraphs.

Environment:
    BLOGSYNC_DB_PATH, BLOGSYNC_IN_MEMORY, BLOGSYNC_TOKEN_SECRET,
    BLOGSYNC_TOKEN_TTL, BLOGSYNC_TOKEN_FILE, BLOGSYNC_READ_RETRIES,
    BLOGSYNC_RETRY_INITIAL, BLOGSYNC_RETRY_MAX_ELAPSED`

var parser = &docopt.Parser{
	HelpHandler: func(err error, usage string) {
		if err != nil {
			fmt.Printf("Invalid command or arguments.\n\n")
		}
		fmt.Println(usage)
	},
}

type blogCommand struct {
	name string
	run  func(ctx context.Context, a *app, opts docopt.Opts) error
}

var blogCommands = []blogCommand{
	{"signup", signup},
	{"login", login},
	{"logout", logout},
	{"whoami", whoami},
	{"posts", listPosts},
	{"show", showPost},
	{"publish", publishPost},
	{"edit", editPost},
	{"delete", deletePost},
	{"like", likePost},
	{"comment", addComment},
	{"comment-edit", editComment},
	{"comment-delete", deleteComment},
}

// HandleCommand parses args, runs the selected command and returns an exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		fmt.Println(usage)
		return 1
	}

	opts, err := parser.ParseArgs(usage, args, "")
	if err != nil {
		return 1
	}
	if len(opts) == 0 {
		return 0
	}

	cfg, err := config.Parse()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	switch {
	case flag(opts, "init"):
		return initDb(cfg.DBPath)
	case flag(opts, "clean"):
		return clean(cfg.DBPath)
	case flag(opts, "backup"):
		return backup(cfg.DBPath)
	case flag(opts, "restore"):
		file, _ := opts.String("<file>")
		return restore(cfg.DBPath, file)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	for _, c := range blogCommands {
		if !flag(opts, c.name) {
			continue
		}
		return runBlogCommand(cfg, c, opts)
	}
	fmt.Println(usage)
	return 1
}

func runBlogCommand(cfg config.Config, c blogCommand, opts docopt.Opts) int {
	ctx := context.Background()
	a, err := openApp(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	defer a.Close()

	if err := c.run(ctx, a, opts); err != nil {
		printError(err)
		return 1
	}
	return 0
}

func flag(opts docopt.Opts, name string) bool {
	on, _ := opts.Bool(name)
	return on
}

func printError(err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		fmt.Println("Error: you need to log in first")
	case errors.Is(err, apperr.ErrForbidden):
		fmt.Println("Error: only the author can change this")
	case errors.Is(err, apperr.ErrNotFound):
		fmt.Printf("Error: not found: %v\n", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		fmt.Println("Error: wrong email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		fmt.Println("Error: that email is already registered")
	default:
		fmt.Printf("Error: %v\n", err)
	}
}
