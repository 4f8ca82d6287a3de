package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/joho/godotenv"

	"github.com/ipshipyard/phishing-detect/cleaner"
	"github.com/ipshipyard/phishing-detect/configfile"
	"github.com/ipshipyard/phishing-detect/detector"
	"github.com/ipshipyard/phishing-detect/fuzzy"
	"github.com/ipshipyard/phishing-detect/server"
)

var log = logging.Logger(name)

const (
	// ConfigEnv names the configuration file used when -config is not given.
	ConfigEnv = "PHISHING_DETECT_CONFIG"
	// OutputEnv names the file clean writes to when -o is not given.
	OutputEnv = "PHISHING_DETECT_OUTPUT"

	defaultConfigPath = "config.json"
)

const (
	exitOK      = 0
	exitError   = 1
	exitChanged = 2
)

// errListChanged makes clean exit with exitChanged, so scripts can tell a
// list that needed cleaning from one that did not.
var errListChanged = errors.New("entries were removed")

type cli struct {
	config string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage string
	run   func(c *cli, args []string) error
}

var commands = map[string]command{
	"check":    {"check [hostname...]          classify hostnames (read from stdin when none are given)", (*cli).check},
	"validate": {"validate [file...]           validate configuration files", (*cli).validate},
	"clean":    {"clean [blocklist|allowlist|all]  remove redundant entries, exit 2 when any were removed", (*cli).clean},
	"diff":     {"diff <base> <next>           check that next is an allowed update of base", (*cli).diff},
	"distance": {"distance <a> <b>             print the edit distance of two strings", (*cli).distance},
	"add":      {"add <list> [domain...]       add domains to a list and clean it", (*cli).add},
	"remove":   {"remove <list> [domain...]    remove domains from a list", (*cli).remove},
	"watch":    {"watch                        serve checks, reloading the configuration when it changes", (*cli).watch},
	"version":  {"version                      print version information", (*cli).version},
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Debug(".env found and loaded")
	}
	registerVersionMetric()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	config := fs.String("config", envOr(ConfigEnv, defaultConfigPath), "path to the JSON configuration (env "+ConfigEnv+")")
	logLevel := fs.String("log-level", "", "log level for every logger: debug, info, warn, error (default from GOLOG_LOG_LEVEL)")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if *logLevel != "" {
		lvl, err := logging.LevelFromString(*logLevel)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -log-level: %s\n", err)
			return exitError
		}
		logging.SetAllLoggers(lvl)
	}

	if fs.NArg() == 0 {
		usage(fs)
		return exitError
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		usage(fs)
		return exitError
	}

	c := &cli{config: *config, stdin: stdin, stdout: stdout, stderr: stderr}
	err := cmd.run(c, fs.Args()[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errListChanged):
		fmt.Fprintln(stderr, err)
		return exitChanged
	default:
		fmt.Fprintf(stderr, "%s: %s\n", fs.Arg(0), err)
		return exitError
	}
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", name)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(out, "  %s\n", commands[n].usage)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	fs.PrintDefaults()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *cli) flags(cmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) check(args []string) error {
	fs := c.flags("check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	hosts := fs.Args()
	if len(hosts) == 0 {
		var err error
		if hosts, err = configfile.ParseHosts(c.stdin); err != nil {
			return err
		}
	}

	in, err := configfile.Load(c.config)
	if err != nil {
		return err
	}
	d, err := detector.New(in)
	if err != nil {
		return err
	}

	failed := 0
	for _, h := range hosts {
		r, err := checkHost(d, h)
		if err != nil {
			fmt.Fprintf(c.stderr, "%s: %s\n", h, err)
			failed++
			continue
		}
		if err := writeResult(c.stdout, h, r); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d hostnames could not be checked", failed, len(hosts))
	}
	return nil
}

func checkHost(checker server.Checker, hostname string) (detector.CheckResult, error) {
	host, err := detector.NormalizeHostname(hostname)
	if err != nil {
		return detector.CheckResult{}, err
	}
	return checker.Check(host)
}

// writeResult prints one result as a tab separated hostname and JSON line.
func writeResult(w io.Writer, hostname string, r detector.CheckResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\n", hostname, data)
	return err
}

func (c *cli) validate(args []string) error {
	fs := c.flags("validate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{c.config}
	}

	var errs []error
	for _, p := range paths {
		in, err := configfile.Load(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(c.stdout, "%s: ok (%d configurations)\n", p, len(in.Configs()))
	}
	return errors.Join(errs...)
}

func (c *cli) clean(args []string) error {
	fs := c.flags("clean")
	policy := fs.String("policy", cleaner.LeaveOneOut.String(), "allowlist policy: leave-one-out, single-pass or keep-all")
	output := fs.String("o", os.Getenv(OutputEnv), "write the cleaned configuration to this file instead of stdout (env "+OutputEnv+")")
	inPlace := fs.Bool("w", false, "overwrite the configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := cleaner.ParseAllowlistPolicy(*policy)
	if err != nil {
		return err
	}
	cl, err := cleaner.New(cleaner.WithAllowlistPolicy(p))
	if err != nil {
		return err
	}
	in, err := configfile.Load(c.config)
	if err != nil {
		return err
	}

	var (
		out    detector.Input
		report *cleaner.Report
	)
	switch which := fs.Arg(0); which {
	case "", "all":
		out, report, err = cl.Clean(in)
	default:
		list, perr := cleaner.ParseList(which)
		if perr != nil {
			return perr
		}
		out, report, err = cl.CleanList(in, list)
	}
	if err != nil {
		return err
	}

	for _, r := range report.Redundancies {
		fmt.Fprintln(c.stderr, r)
	}

	switch {
	case *inPlace:
		err = configfile.Save(c.config, out)
	case *output != "":
		err = configfile.Save(*output, out)
	default:
		err = configfile.Encode(c.stdout, out)
	}
	if err != nil {
		return err
	}

	if removed := report.Removed(cleaner.Allowlist) + report.Removed(cleaner.Blocklist); removed > 0 {
		return fmt.Errorf("%w: %d", errListChanged, removed)
	}
	return nil
}

func (c *cli) diff(args []string) error {
	fs := c.flags("diff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("expected <base> <next>")
	}
	base, err := configfile.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	next, err := configfile.Load(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := detector.ValidateUpdate(base, next); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "ok")
	return nil
}

func (c *cli) distance(args []string) error {
	fs := c.flags("distance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("expected <a> <b>")
	}
	fmt.Fprintln(c.stdout, fuzzy.Distance(fs.Arg(0), fs.Arg(1)))
	return nil
}

// editArgs parses the flags shared by add and remove and returns the list,
// the configuration index and the domains named on the command line or in
// the hosts file.
func (c *cli) editArgs(cmd string, args []string) (cleaner.List, int, []string, error) {
	fs := c.flags(cmd)
	index := fs.Int("index", 0, "position of the configuration in a chain")
	file := fs.String("f", "", "read domains from this file, one per line (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return "", 0, nil, err
	}
	if fs.NArg() == 0 {
		return "", 0, nil, errors.New("expected <list> [domain...]")
	}
	list, err := cleaner.ParseList(fs.Arg(0))
	if err != nil {
		return "", 0, nil, err
	}

	domains := fs.Args()[1:]
	if *file != "" {
		var r io.Reader = c.stdin
		if *file != "-" {
			f, err := os.Open(*file)
			if err != nil {
				return "", 0, nil, err
			}
			defer f.Close()
			r = f
		}
		hosts, err := configfile.ParseHosts(r)
		if err != nil {
			return "", 0, nil, err
		}
		domains = append(domains, hosts...)
	}
	if len(domains) == 0 {
		return "", 0, nil, errors.New("no domains given")
	}
	return list, *index, domains, nil
}

func (c *cli) add(args []string) error {
	return c.edit("add", args, (*cleaner.Cleaner).AddDomains)
}

func (c *cli) remove(args []string) error {
	return c.edit("remove", args, (*cleaner.Cleaner).RemoveDomains)
}

type editFunc func(*cleaner.Cleaner, detector.Input, int, cleaner.List, ...string) (detector.Input, *cleaner.Report, error)

func (c *cli) edit(cmd string, args []string, fn editFunc) error {
	list, index, domains, err := c.editArgs(cmd, args)
	if err != nil {
		return err
	}
	cl, err := cleaner.New()
	if err != nil {
		return err
	}
	in, err := configfile.Load(c.config)
	if err != nil {
		return err
	}
	out, report, err := fn(cl, in, index, list, domains...)
	if err != nil {
		return err
	}
	for _, r := range report.Redundancies {
		fmt.Fprintln(c.stderr, r)
	}
	if err := configfile.Save(c.config, out); err != nil {
		return err
	}
	log.Infof("%s: %s %d domains on %s", c.config, cmd, len(domains), list)
	return nil
}

func (c *cli) watch(args []string) error {
	fs := c.flags("watch")
	listen := fs.String("listen", "", "serve the HTTP API on this address, e.g. 127.0.0.1:8080")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := configfile.NewWatcher(c.config, configfile.WithOnReload(func(in detector.Input, err error) {
		if err == nil {
			fmt.Fprintf(c.stderr, "%s: reloaded %d configurations\n", c.config, len(in.Configs()))
		}
	}))
	if err != nil {
		return err
	}
	defer w.Close()

	if *listen != "" {
		srv := &http.Server{
			Addr:              *listen,
			Handler:           server.NewHandler(w),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infof("HTTP API listener at %s", *listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("HTTP API: %s", err)
				stop()
			}
		}()
		defer srv.Close()
	}

	// Hostnames on stdin are checked against the configuration in service
	// at the time each line is read.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				if *listen == "" {
					return nil
				}
				continue
			}
			host := strings.TrimSpace(line)
			if host == "" || strings.HasPrefix(host, "#") {
				continue
			}
			r, err := checkHost(w, host)
			if err != nil {
				fmt.Fprintf(c.stderr, "%s: %s\n", host, err)
				continue
			}
			if err := writeResult(c.stdout, host, r); err != nil {
				return err
			}
		}
	}
}

func (c *cli) version(args []string) error {
	fmt.Fprintf(c.stdout, "%s %s\n", name, version)
	return nil
}
