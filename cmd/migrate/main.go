package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/statement-recon/internal/config"
	"github.com/dvloznov/statement-recon/internal/ledger"
	"github.com/dvloznov/statement-recon/internal/logger"
)

func main() {
	log := logger.New()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

// run executes one migrate command against the SQLite ledger.
//
//	migrate [-db PATH] up|down|version|steps N
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	dbPath := fs.String("db", "", "SQLite ledger path (defaults to ledger.sqlite_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		*dbPath = cfg.Ledger.SQLitePath
	}

	cmd := "up"
	if fs.NArg() > 0 {
		cmd = fs.Arg(0)
	}

	g, err := ledger.OpenMigrator(*dbPath)
	if err != nil {
		return err
	}
	defer g.Close()

	switch cmd {
	case "up":
		err = g.Up()
	case "down":
		err = g.Down()
	case "steps":
		var n int
		if fs.NArg() < 2 {
			return fmt.Errorf("steps needs a count")
		}
		if _, err := fmt.Sscanf(fs.Arg(1), "%d", &n); err != nil {
			return fmt.Errorf("invalid step count %q", fs.Arg(1))
		}
		err = g.Steps(n)
	case "version":
	default:
		return fmt.Errorf("unknown command %q (want up, down, steps or version)", cmd)
	}
	if err != nil {
		return err
	}

	v, dirty, err := g.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: schema version %d", *dbPath, v)
	if dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)
	return nil
}
