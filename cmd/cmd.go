// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "playlist",
		Aliases: []string{"p"},
		Usage:   "Source playlist ID (repeatable, use 'liked_songs' for saved tracks)",
	}
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a config.toml from the embedded template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the local catalog database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the authenticated user's profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// libraryCommand handles read-only library operations.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the Spotify library",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List tracks from the library or selected playlists",
				Flags: []cli.Flag{
					configFlag(),
					playlistFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to print",
					},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.LibraryTracks,
			},
			{
				Name:  "playlists",
				Usage: "List playlists (including the Liked Songs pseudo-playlist)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "stats",
				Usage: "Show aggregate library statistics",
				Flags: []cli.Flag{
					configFlag(),
					playlistFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.LibraryStats,
			},
		},
	}
}

// sortCommand classifies tracks and reconciles playlists per a policy.
func sortCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sort",
		Usage: "Classify tracks and preview or apply managed playlists",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "policy",
				UsageText: "genre | mood | decade | artist",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			playlistFlag(),
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Apply the plan (create and update playlists)",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Managed playlist name prefix",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create public playlists",
			},
			&cli.IntFlag{
				Name:  "min-tracks",
				Usage: "Minimum group size for the artist policy",
			},
			&cli.BoolFlag{
				Name:  "keep-unknown",
				Usage: "Keep untagged tracks under an 'unknown' genre group",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export the preview (json, csv, markdown, txt)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export output directory",
			},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
		},
		Action: r.Sort,
	}
}

// filterCommand selects tracks by multi-criteria specs.
func filterCommand(r *Runner) *cli.Command {
	criteria := []cli.Flag{
		configFlag(),
		playlistFlag(),
		&cli.StringFlag{
			Name:  "text",
			Usage: "Free-text match across title, artist, and album",
		},
		&cli.StringFlag{
			Name:  "artist",
			Usage: "Exact artist name (case-insensitive)",
		},
		&cli.StringSliceFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Genre tag (repeatable, any match)",
		},
		&cli.IntFlag{
			Name:  "year-from",
			Usage: "Earliest release year (inclusive)",
		},
		&cli.IntFlag{
			Name:  "year-to",
			Usage: "Latest release year (inclusive)",
		},
		&cli.StringFlag{
			Name:  "mood",
			Usage: "Mood label (happy, sad, energetic, calm, party, chill)",
		},
	}

	return &cli.Command{
		Name:  "filter",
		Usage: "Select tracks matching multiple criteria",
		Flags: append(criteria,
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of tracks to print"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
		),
		Action: r.Filter,
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Materialize a filter result as a new playlist",
				Flags: append(criteria,
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Name for the new playlist",
						Required: true,
					},
					&cli.BoolFlag{Name: "public", Usage: "Create a public playlist"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				),
				Action: r.FilterCreate,
			},
		},
	}
}

// playlistCommand handles direct playlist management.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage individual playlists",
		Commands: []*cli.Command{
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "id", Usage: "Playlist ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "New playlist name", Required: true},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:  "delete",
				Usage: "Delete (unfollow) a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "id", Usage: "Playlist ID", Required: true},
					&cli.BoolFlag{Name: "yes", Usage: "Skip the confirmation notice"},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "remove-track",
				Usage: "Remove all occurrences of a track from a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "id", Usage: "Playlist ID", Required: true},
					&cli.StringFlag{Name: "track", Usage: "Track ID", Required: true},
				},
				Action: r.PlaylistRemoveTrack,
			},
		},
	}
}

// scanCommand indexes local audio files into the catalog database.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Index local audio files",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Walk a directory and upsert its audio files into the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ScanRun,
			},
			{
				Name:  "list",
				Usage: "List indexed local tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "artist", Usage: "Filter by artist"},
					&cli.StringFlag{Name: "genre", Usage: "Filter by genre"},
					&cli.IntFlag{Name: "year", Usage: "Filter by release year"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.ScanList,
			},
		},
	}
}

// serveCommand runs the dashboard HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON dashboard API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "host", Usage: "Bind host (overrides config)"},
			&cli.IntFlag{Name: "port", Usage: "Bind port (overrides config)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive sorting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive TUI for library sorting",
		Flags:   []cli.Flag{playlistFlag()},
		Action:  r.TUI,
	}
}
