package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"btp-bootstrap/bootstrap"
	"btp-bootstrap/chains"
	"btp-bootstrap/config"
	"btp-bootstrap/store"

	log "github.com/ChainSafe/log15"
	"github.com/urfave/cli/v2"
)

var app = cli.NewApp()

var cliFlags = []cli.Flag{
	config.ConfigFileFlag,
	config.VerbosityFlag,
	config.EnvFileFlag,
	config.LinkFlag,
}

var bootstrapFlags = []cli.Flag{
	config.RedeployFlag,
	config.StepTimeoutFlag,
}

var statusFlags = []cli.Flag{
	config.StepTimeoutFlag,
}

var generateEthFlags = []cli.Flag{
	config.KeystorePathFlag,
	config.ChainFlag,
}

var bootstrapCommand = cli.Command{
	Action: bootstrapCmd,
	Name:   "bootstrap",
	Usage:  "deploy and cross-register the bridge contracts of every link",
	Flags:  bootstrapFlags,
	Description: "The bootstrap command deploys BMC, BMV and BSH on both chains of a link,\n" +
		"\tregisters verifiers, services, links, relays and coins, then checks the link status.",
}

var statusCommand = cli.Command{
	Action: statusCmd,
	Name:   "status",
	Usage:  "check the registrations of already bootstrapped links",
	Flags:  statusFlags,
}

var accountCommand = cli.Command{
	Name:        "accounts",
	Usage:       "manage keystores",
	Description: "The accounts command is used to manage the keystore.\n",
	Subcommands: []*cli.Command{
		{
			Action: handleGenerateEthCmd,
			Name:   "geneth",
			Usage:  "generate or import the signing key of an evm chain",
			Flags:  generateEthFlags,
			Description: "The geneth subcommand encrypts a signing key into <keystore>/<address>.key,\n" +
				"\twhere an evm chain whose from is that address loads it. With --chain the\n" +
				"\tkeystore path of that chain in the config file is used.",
		},
	},
}

// init initializes CLI
func init() {
	app.Copyright = "Copyright 2021 Stafi Protocol Authors"
	app.Name = "btpdeploy"
	app.Usage = "bootstrap BTP bridge links"
	app.Authors = []*cli.Author{{Name: "Stafi Protocol 2021"}}
	app.Version = "1.0.0"
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		&bootstrapCommand,
		&statusCommand,
		&accountCommand,
	}

	app.Flags = append(app.Flags, cliFlags...)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func startLogger(ctx *cli.Context) error {
	logger := log.Root()
	var lvl log.Lvl

	if lvlToInt, err := strconv.Atoi(ctx.String(config.VerbosityFlag.Name)); err == nil {
		lvl = log.Lvl(lvlToInt)
	} else if lvl, err = log.LvlFromString(ctx.String(config.VerbosityFlag.Name)); err != nil {
		return err
	}

	logger.SetHandler(log.MultiHandler(
		log.LvlFilterHandler(
			lvl,
			log.StreamHandler(os.Stdout, log.LogfmtFormat())),
		log.Must.FileHandler("btpdeploy_log.json", log.JsonFormat()),
		log.LvlFilterHandler(
			log.LvlError,
			log.Must.FileHandler("btpdeploy_log_errors.json", log.JsonFormat()))))

	return nil
}

func bootstrapCmd(ctx *cli.Context) error {
	return runLinks(ctx, bootstrap.BuildPlan)
}

func statusCmd(ctx *cli.Context) error {
	return runLinks(ctx, bootstrap.StatusPlan)
}

func runLinks(ctx *cli.Context, plan bootstrap.PlanFunc) error {
	err := startLogger(ctx)
	if err != nil {
		return err
	}

	if err := config.LoadEnvFiles(ctx.StringSlice(config.EnvFileFlag.Name)...); err != nil {
		return err
	}
	cfg, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	selected, err := cfg.SelectLinks(ctx.StringSlice(config.LinkFlag.Name))
	if err != nil {
		return err
	}

	book, err := store.NewStore(cfg.AddressBook)
	if err != nil {
		return fmt.Errorf("open address book %s err: %w", cfg.AddressBook, err)
	}
	defer func() {
		if err := book.Close(); err != nil {
			log.Error("close address book", "err", err)
		}
	}()

	pool := bootstrap.NewChainPool(cfg, book, chains.Dial, log.Root())
	links := make([]*bootstrap.Link, 0, len(selected))
	for _, raw := range selected {
		link, err := bootstrap.NewLink(pool, raw)
		if err != nil {
			return err
		}
		if ctx.Bool(config.RedeployFlag.Name) {
			link.Options.Redeploy = true
		}
		if ctx.IsSet(config.StepTimeoutFlag.Name) || link.Options.StepTimeout == 0 {
			link.Options.StepTimeout = ctx.Duration(config.StepTimeoutFlag.Name)
		}
		links = append(links, link)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := bootstrap.RunAll(runCtx, links, plan, log.Root())
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "\n== link %s ==\n", r.Link)
		if perr := r.Report.Print(os.Stdout); perr != nil {
			log.Error("print report", "link", r.Link, "err", perr)
		}
	}
	return err
}
