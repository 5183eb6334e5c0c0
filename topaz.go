// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"syscall"

	"code.cloudfoundry.org/bytefmt"
	"github.com/docopt/docopt-go"
	"github.com/ergochat/irc-go/ircutils"
	"golang.org/x/term"

	"github.com/topazui/topaz/topaz"
	"github.com/topazui/topaz/topaz/layout"
	"github.com/topazui/topaz/topaz/legacyfmt"
	"github.com/topazui/topaz/topaz/logger"
	"github.com/topazui/topaz/topaz/mkcerts"
	"github.com/topazui/topaz/topaz/passwd"
	"github.com/topazui/topaz/topaz/utils"
)

// set via linker flags, either by make or by goreleaser:
var commit = ""  // git hash
var version = "" // tagged version

// get a token from stdin from the user
func getTokenFromTerminal() string {
	byteToken, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal("Error reading token:", err.Error())
	}
	return string(byteToken)
}

// implements the `topaz hashtoken` command
func doHashToken() {
	var token string
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Enter Token: ")
		token = getTokenFromTerminal()
		fmt.Print("\n")
		fmt.Print("Reenter Token: ")
		confirm := getTokenFromTerminal()
		fmt.Print("\n")
		if confirm != token {
			log.Fatal("tokens do not match")
		}
	} else {
		reader := bufio.NewReader(os.Stdin)
		text, _ := reader.ReadString('\n')
		token = strings.TrimSpace(text)
	}
	if token == "" {
		log.Fatal("token is empty")
	}
	// tokens are checked on every API request, so keep the cost low
	hash, err := passwd.GenerateFromPassword([]byte(token), passwd.MinCost)
	if err != nil {
		log.Fatal("encoding error:", err.Error())
	}
	fmt.Println(string(hash))
}

// implements the `topaz mkcerts` command
func doMkcerts(configFile string, quiet bool) {
	config, err := topaz.LoadRawConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}
	tlsConf := config.Server.API.TLS
	if tlsConf == nil || tlsConf.Cert == "" || tlsConf.Key == "" {
		log.Fatal("No API TLS cert and key files are configured")
	}
	if !quiet {
		log.Println("making self-signed certificate for the API listener")
	}

	hosts := []string{config.Server.Name}
	if host, _, err := net.SplitHostPort(config.Server.API.Listen); err == nil && host != "" {
		hosts = append(hosts, host)
	}
	cert, key := tlsConf.Cert, tlsConf.Key
	if utils.FileExists(cert) || utils.FileExists(key) {
		log.Fatalf("Preexisting TLS cert and/or key files: %s %s", cert, key)
	}
	if err := mkcerts.CreateCert("Topaz", hosts, cert, key); err != nil {
		log.Fatal("  Could not create certificate:", err.Error())
	}
	if !quiet {
		log.Printf("  Certificate created at %s : %s\n", cert, key)
	}
}

// implements the `topaz classify` command
func doClassify(rows []string) {
	shape := layout.Classify(rows)
	_, fitted := layout.Fit(rows)
	fmt.Printf("shape:  %s\n", shape)
	fmt.Printf("size:   %d\n", shape.ContainerSize(len(rows)))
	fmt.Printf("fitted: %s\n", fitted)
	if grid, err := layout.NewGrid(rows); err == nil {
		for _, row := range grid.Rows() {
			fmt.Printf("  [%s]\n", row)
		}
	}
}

// translatorForCLI uses the configured prefixes and size limit when the
// config file exists, and the defaults otherwise.
func translatorForCLI(configFile string) (tr *legacyfmt.Translator, maxSize int) {
	if !utils.FileExists(configFile) {
		size, err := bytefmt.ToBytes(topaz.DefaultMaxRequestSize)
		if err != nil {
			log.Fatal(err)
		}
		return legacyfmt.Default(), int(size)
	}
	config, err := topaz.LoadConfig(configFile)
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}
	return config.LegacyTranslator(), config.MaxRequestSize()
}

// implements the `topaz translate` command; with no arguments, each line of
// stdin is translated as it arrives
func doTranslate(configFile string, text []string, strip bool) {
	tr, maxSize := translatorForCLI(configFile)
	convert := tr.Translate
	if strip {
		convert = tr.Strip
	}

	if len(text) != 0 {
		fmt.Println(convert(ircutils.TruncateUTF8Safe(strings.Join(text, " "), maxSize)))
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 4096), maxSize*4)
	for scanner.Scan() {
		fmt.Println(convert(ircutils.TruncateUTF8Safe(scanner.Text(), maxSize)))
	}
	if err := scanner.Err(); err != nil {
		log.Fatal("Error reading input:", err.Error())
	}
}

// implements the `topaz show` command
func doShow(config *topaz.Config, name string) {
	key, err := topaz.CasefoldName(name)
	if err != nil {
		log.Fatalf("Invalid menu name %s: %v", name, err)
	}
	menu, ok := config.CompiledMenus()[key]
	if !ok {
		log.Fatalf("No such menu: %s", name)
	}
	out, err := json.MarshalIndent(menu, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}

// implements the `topaz compile` command
func doCompile(config *topaz.Config, logman *logger.Manager, quiet bool) {
	lock, err := topaz.LockDatastore(config)
	if err != nil {
		log.Fatal("Could not lock datastore: ", err.Error())
	}
	defer lock.Unlock()

	store, err := topaz.OpenDatabase(config, logman)
	if err != nil {
		log.Fatal("Could not open datastore: ", err.Error())
	}
	defer store.Close()

	menus := config.CompiledMenus()
	if err := topaz.StoreMenus(store, menus); err != nil {
		log.Fatal("Could not store menus: ", err.Error())
	}
	if !quiet {
		for _, menu := range menus {
			if menu.Ragged {
				log.Printf("warning: menu %s has rows of different widths, fitted to %s\n", menu.Name, menu.Shape)
			}
		}
		log.Printf("compiled %d menus into %s\n", len(menus), config.Datastore.Path)
	}
}

func main() {
	topaz.SetVersionString(version, commit)
	usage := `topaz.
Usage:
	topaz initdb [--conf <filename>] [--quiet]
	topaz upgradedb [--conf <filename>] [--quiet]
	topaz compile [--conf <filename>] [--quiet]
	topaz show [--conf <filename>] <menu>
	topaz translate [--conf <filename>] [--strip] [<text>...]
	topaz classify <row>...
	topaz hashtoken
	topaz mkcerts [--conf <filename>] [--quiet]
	topaz run [--conf <filename>] [--quiet] [--smoke]
	topaz -h | --help
	topaz --version
Options:
	--conf <filename>  Configuration file to use [default: topaz.yaml].
	--quiet            Don't show startup/shutdown lines.
	--strip            Remove legacy codes instead of translating them.
	--smoke            Load everything and exit without serving.
	-h --help          Show this screen.
	--version          Show version.`

	arguments, _ := docopt.ParseArgs(usage, nil, topaz.Ver)

	// these don't require a valid config file
	if arguments["hashtoken"].(bool) {
		doHashToken()
		return
	} else if arguments["mkcerts"].(bool) {
		doMkcerts(arguments["--conf"].(string), arguments["--quiet"].(bool))
		return
	} else if arguments["classify"].(bool) {
		doClassify(arguments["<row>"].([]string))
		return
	} else if arguments["translate"].(bool) {
		doTranslate(arguments["--conf"].(string), arguments["<text>"].([]string), arguments["--strip"].(bool))
		return
	}

	configfile := arguments["--conf"].(string)
	config, err := topaz.LoadConfig(configfile)
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}

	if arguments["show"].(bool) {
		doShow(config, arguments["<menu>"].(string))
		return
	}

	logman, err := logger.NewManager(config.Logging)
	if err != nil {
		log.Fatal("Logger did not load successfully:", err.Error())
	}

	if arguments["initdb"].(bool) {
		err = topaz.InitDB(config.Datastore.Path)
		if err != nil {
			log.Fatal("Error while initializing db:", err.Error())
		}
		if !arguments["--quiet"].(bool) {
			log.Println("database initialized: ", config.Datastore.Path)
		}
	} else if arguments["upgradedb"].(bool) {
		lock, err := topaz.LockDatastore(config)
		if err != nil {
			log.Fatal("Could not lock datastore: ", err.Error())
		}
		err = topaz.UpgradeDB(config, logman)
		lock.Unlock()
		if err != nil {
			log.Fatal("Error while upgrading db:", err.Error())
		}
		if !arguments["--quiet"].(bool) {
			log.Println("database upgraded: ", config.Datastore.Path)
		}
	} else if arguments["compile"].(bool) {
		doCompile(config, logman, arguments["--quiet"].(bool))
	} else if arguments["run"].(bool) {
		if !arguments["--quiet"].(bool) {
			logman.Info("server", fmt.Sprintf("%s starting", topaz.Ver))
		}

		// warning if running a non-final version
		if strings.Contains(topaz.Ver, "unreleased") {
			logman.Warning("server", "You are currently running an unreleased version of Topaz that may be unstable.")
		}

		server, err := topaz.NewServer(config, logman)
		if err != nil {
			logman.Error("server", fmt.Sprintf("Could not load server: %s", err.Error()))
			os.Exit(1)
		}
		if !arguments["--smoke"].(bool) {
			server.Run()
		} else {
			server.Shutdown()
		}
	}
}
