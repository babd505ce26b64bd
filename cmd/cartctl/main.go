// Command cartctl drives a persistent cart from the shell.
//
//	cartctl add -title Shoe -image shoe.png -price 10 sku-1
//	cartctl inc sku-1
//	cartctl dec sku-1
//	cartctl clear
//	cartctl show
//
// Storage follows the usual CART_* settings. With none set, the cart lives in
// a bbolt file under the user cache directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Ratio1/cart_sdk_go/internal/config"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
	"github.com/Ratio1/cart_sdk_go/pkg/cart"
	"github.com/Ratio1/cart_sdk_go/pkg/cartsdk"
)

const usageText = `usage: cartctl [flags] <command> [args]

commands:
  show                 print the cart
  add [flags] <id>     add an item (-title, -image, -price required)
  inc <id>             increment an item
  dec <id>             decrement an item
  clear                remove every item
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "cartctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("cartctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", os.Getenv(config.EnvConfigPath), "optional YAML config file")
	dbPath := fs.String("db", "", "bbolt file to use (overrides storage settings)")
	verbose := fs.Bool("v", false, "log to stderr")
	timeout := fs.Duration("timeout", 10*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Store.Mode, cfg.Store.BoltPath = "bolt", *dbPath
	} else if unconfigured(cfg.Store) {
		cfg.Store.BoltPath = defaultDBPath()
	}

	log := logger.NewNop()
	if *verbose {
		log = logger.New(logger.Config{Level: "debug", Encoding: "console"})
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	rt, err := cartsdk.New(ctx, cfg, cartsdk.WithLogger(log))
	if err != nil {
		return err
	}

	cmdErr := dispatch(rt.Store, fs.Arg(0), fs.Args()[1:], stdout, stderr)
	if err := rt.Close(ctx); err != nil && cmdErr == nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return cmdErr
}

func dispatch(s *cart.Store, cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "show":
		return printCart(stdout, s.Snapshot())

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		fs.SetOutput(stderr)
		title := fs.String("title", "", "product title")
		image := fs.String("image", "", "product image URL")
		price := fs.Float64("price", 0, "unit price, required")
		if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
			fmt.Fprintln(stderr, "usage: cartctl add [-title T] [-image URL] -price P <id>")
			return errUsage
		}
		item := cart.Candidate{ID: fs.Arg(0), Title: *title, ImageURL: *image, Price: *price}
		if !item.Valid() {
			fmt.Fprintln(stderr, "add: id must be non-empty and -price a positive number")
			return errUsage
		}
		s.AddToCart(item)

	case "inc", "dec":
		if len(args) != 1 {
			fmt.Fprintf(stderr, "usage: cartctl %s <id>\n", cmd)
			return errUsage
		}
		op := cart.Op(cart.Increment{ID: args[0]})
		if cmd == "dec" {
			op = cart.Decrement{ID: args[0]}
		}
		if !s.Dispatch(op) {
			fmt.Fprintf(stderr, "%s: no item %q in cart\n", cmd, args[0])
		}

	case "clear":
		s.Clear()

	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usageText)
		return errUsage
	}
	return printCart(stdout, s.Snapshot())
}

func printCart(w io.Writer, c cart.Cart) error {
	if c.Len() == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY")
	for _, item := range c {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", item.ID, item.Title, item.Price, item.Quantity)
	}
	fmt.Fprintf(tw, "\t\t\t%d\n", c.Units())
	return tw.Flush()
}

func unconfigured(cfg config.StoreConfig) bool {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	return (mode == "" || mode == "auto") &&
		cfg.URL == "" && cfg.RedisAddr == "" && cfg.BoltPath == ""
}

func defaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "cartctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return filepath.Join(os.TempDir(), "cartctl.db")
	}
	return filepath.Join(dir, "cart.db")
}
