package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/urfave/cli/v2"

	"github.com/arteen1000/topo-order-commits/internal/gitdag"
	"github.com/arteen1000/topo-order-commits/internal/sticky"
)

// Exit codes, one per failure class so callers can tell them apart.
const (
	exitNotARepository = 2
	exitRefResolution  = 3
	exitMissingObject  = 4
	exitCorruptStorage = 5
	exitCycleDetected  = 6
)

func main() {
	app := &cli.App{
		Name:  "topo-order-commits",
		Usage: "print the commits reachable from all branch heads in deterministic topological order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"C"},
				Value:   ".",
				Usage:   "directory to start the repository search from",
			},
		},
		Action: run,
	}
	// cli.Exit errors carry their own code and message; anything else is a
	// plain failure.
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("topo-order-commits: %v", err)
	}
}

func run(c *cli.Context) error {
	start, err := filepath.Abs(c.String("path"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("topo-order-commits: %v", err), 1)
	}

	repo, err := gitdag.Discover(osfs.New("/"), start)
	if err != nil {
		return exitError(err)
	}

	order, graph, err := repo.TopoOrder()
	if err != nil {
		return exitError(err)
	}

	// Nothing reaches stdout until the whole pipeline has succeeded.
	fmt.Print(sticky.Serialize(order, graph))
	return nil
}

func exitError(err error) error {
	msg := "topo-order-commits: " + err.Error()
	switch {
	case errors.As(err, new(*gitdag.NotARepositoryError)):
		return cli.Exit(msg, exitNotARepository)
	case errors.As(err, new(*gitdag.RefResolutionError)):
		return cli.Exit(msg, exitRefResolution)
	case errors.As(err, new(*gitdag.ObjectNotFoundError)):
		return cli.Exit(msg, exitMissingObject)
	case errors.As(err, new(*gitdag.CorruptObjectError)),
		errors.As(err, new(*gitdag.MalformedCommitError)):
		return cli.Exit(msg, exitCorruptStorage)
	case errors.As(err, new(*gitdag.CycleDetectedError)):
		return cli.Exit(msg, exitCycleDetected)
	default:
		return cli.Exit(msg, 1)
	}
}
