package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cnpbank/cnp/core"
	"github.com/cnpbank/cnp/network"
	"github.com/cnpbank/cnp/store"
)

// flags
var flags struct {
	port    int
	dataDir string
	addr    string
	first   string
	last    string
	email   string
	pin     uint16
	ssn     uint32
	dln     uint32
	amount  uint32
	kind    uint16
	startID uint32
	count   uint16
}

// cnp
var cnp = &cobra.Command{
	Use:   "cnp command",
	Short: "A CNP banking protocol server and test client.",
}

// serve
var serve = &cobra.Command{
	Use:   "serve",
	Short: "Run the bank server.",
	Run: func(cmd *cobra.Command, args []string) {
		port := flags.port
		if port == 0 {
			port = promptPort()
		}

		dir := flags.dataDir
		if dir == "" {
			d, err := store.GetDataDir()
			if err != nil {
				log.Fatalf("failed to resolve data directory: %v", err)
			}
			dir = d
		}

		accounts := new(store.AccountStore).New()
		txlog := new(store.TransactionLog).New()
		sessions := new(store.SessionTable).New()

		acctPath := filepath.Join(dir, "AccountDB.Dat")
		txPath := filepath.Join(dir, "TransactDB.Dat")

		loaded, err := store.LoadAccounts(acctPath)
		if err != nil {
			log.Fatalf("failed to load accounts: %v", err)
		}
		accounts.Restore(loaded)
		log.Printf("loaded %d accounts from %s", len(loaded), acctPath)

		loadedTx, err := store.LoadTransactions(txPath)
		if err != nil {
			log.Fatalf("failed to load transactions: %v", err)
		}
		txlog.Restore(loadedTx)
		log.Printf("loaded %d transactions from %s", len(loadedTx), txPath)

		srv := network.New(port, accounts, txlog, sessions)
		if err := srv.Start(); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Print("shutting down")
		srv.Stop()

		if err := store.SaveAccounts(acctPath, accounts.Snapshot()); err != nil {
			log.Fatalf("failed to save accounts: %v", err)
		}
		if err := store.SaveTransactions(txPath, txlog.Snapshot()); err != nil {
			log.Fatalf("failed to save transactions: %v", err)
		}
		log.Print("persisted accounts and transactions, exiting")
	},
}

// promptPort reads a port number from stdin, per the protocol's CLI
// requirement that the server prompt for its listening port. Non-tty
// stdin (pipes, CI, scripted invocations) skips the prompt and falls back
// to defaultPort (9000) rather than blocking forever; so does unreadable
// or non-positive input.
func promptPort() int {
	const defaultPort = 9000
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return defaultPort
	}

	fmt.Print("listening port: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultPort
	}
	port, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || port <= 0 {
		return defaultPort
	}
	return port
}

// client
var client = &cobra.Command{
	Use:   "client sub-command",
	Short: "Issue one request against a running bank server.",
}

func dialClient() *network.Client {
	if flags.addr == "" {
		log.Fatal("required \"addr\" flag not set")
	}
	c, err := network.Dial(flags.addr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", flags.addr, err)
	}
	resp, err := c.Connect()
	if err != nil {
		log.Fatalf("CONNECT failed: %v", err)
	}
	if resp.Result != core.Success {
		log.Fatalf("CONNECT rejected: %s", core.ResultName(resp.Result))
	}
	return c
}

var clientCreateAccount = &cobra.Command{
	Use:   "create-account",
	Short: "Create a new account.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		resp, err := c.CreateAccount(flags.first, flags.last, flags.email, flags.pin, flags.ssn, flags.dln)
		if err != nil {
			log.Fatalf("CREATE_ACCOUNT failed: %v", err)
		}
		fmt.Println(core.ResultName(resp.Result))
	},
}

var clientLogon = &cobra.Command{
	Use:   "logon",
	Short: "Log on to an existing account.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		resp, err := c.Logon(flags.first, flags.pin)
		if err != nil {
			log.Fatalf("LOGON failed: %v", err)
		}
		fmt.Println(core.ResultName(resp.Result))
	},
}

var clientDeposit = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit cash or a check, after logging on.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		if resp, err := c.Logon(flags.first, flags.pin); err != nil || resp.Result != core.Success {
			log.Fatalf("LOGON failed: %v", err)
		}

		resp, err := c.Deposit(flags.amount, flags.kind)
		if err != nil {
			log.Fatalf("DEPOSIT failed: %v", err)
		}
		fmt.Printf("%s: deposited %s\n", core.ResultName(resp.Result), humanize.Comma(int64(flags.amount)))
	},
}

var clientWithdraw = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw funds, after logging on.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		if resp, err := c.Logon(flags.first, flags.pin); err != nil || resp.Result != core.Success {
			log.Fatalf("LOGON failed: %v", err)
		}

		resp, err := c.Withdraw(flags.amount)
		if err != nil {
			log.Fatalf("WITHDRAWAL failed: %v", err)
		}
		fmt.Printf("%s: withdrew %s\n", core.ResultName(resp.Result), humanize.Comma(int64(flags.amount)))
	},
}

var clientPurchaseStamps = &cobra.Command{
	Use:   "purchase-stamps",
	Short: "Purchase stamps, after logging on.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		if resp, err := c.Logon(flags.first, flags.pin); err != nil || resp.Result != core.Success {
			log.Fatalf("LOGON failed: %v", err)
		}

		resp, err := c.PurchaseStamps(flags.amount)
		if err != nil {
			log.Fatalf("STAMP_PURCHASE failed: %v", err)
		}
		fmt.Printf("%s: purchased stamps worth %s\n", core.ResultName(resp.Result), humanize.Comma(int64(flags.amount)))
	},
}

var clientBalance = &cobra.Command{
	Use:   "balance",
	Short: "Query account balance, after logging on.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		if resp, err := c.Logon(flags.first, flags.pin); err != nil || resp.Result != core.Success {
			log.Fatalf("LOGON failed: %v", err)
		}

		resp, err := c.BalanceQuery()
		if err != nil {
			log.Fatalf("BALANCE_QUERY failed: %v", err)
		}
		fmt.Printf("%s: balance %s\n", core.ResultName(resp.Result), humanize.Comma(int64(resp.Balance)))
	},
}

var clientTransactions = &cobra.Command{
	Use:   "transactions",
	Short: "Query paged transaction history, after logging on.",
	Run: func(cmd *cobra.Command, args []string) {
		c := dialClient()
		defer c.Close()

		if resp, err := c.Logon(flags.first, flags.pin); err != nil || resp.Result != core.Success {
			log.Fatalf("LOGON failed: %v", err)
		}

		resp, err := c.TransactionQuery(flags.startID, flags.count)
		if err != nil {
			log.Fatalf("TRANSACTION_QUERY failed: %v", err)
		}
		fmt.Println(core.ResultName(resp.Result))
		for _, rec := range resp.Records {
			fmt.Printf("  #%d  type=%d  amount=%s\n", rec.ID, rec.Type, humanize.Comma(int64(rec.Amount)))
		}
	},
}

// inspect
var inspect = &cobra.Command{
	Use:   "inspect",
	Short: "Print the persisted accounts and transaction log.",
	Run: func(cmd *cobra.Command, args []string) {
		dir := flags.dataDir
		if dir == "" {
			d, err := store.GetDataDir()
			if err != nil {
				log.Fatalf("failed to resolve data directory: %v", err)
			}
			dir = d
		}

		accounts := new(store.AccountStore).New()
		txlog := new(store.TransactionLog).New()

		loaded, err := store.LoadAccounts(filepath.Join(dir, "AccountDB.Dat"))
		if err != nil {
			log.Fatalf("failed to load accounts: %v", err)
		}
		accounts.Restore(loaded)

		loadedTx, err := store.LoadTransactions(filepath.Join(dir, "TransactDB.Dat"))
		if err != nil {
			log.Fatalf("failed to load transactions: %v", err)
		}
		txlog.Restore(loadedTx)

		accounts.Inspect()
		fmt.Println()
		txlog.Inspect()
	},
}

func init() {
	cobra.EnableCommandSorting = false

	serve.Flags().IntVarP(&flags.port, "port", "p", 0, "Listening port (0 prompts on stdin).")
	serve.Flags().StringVarP(&flags.dataDir, "data-dir", "d", "", "Persistence directory (default: ./Data).")
	inspect.Flags().StringVarP(&flags.dataDir, "data-dir", "d", "", "Persistence directory (default: ./Data).")

	client.PersistentFlags().StringVarP(&flags.addr, "addr", "a", "", "Bank server address, host:port.")
	client.PersistentFlags().StringVar(&flags.first, "first", "", "Account first name.")
	client.PersistentFlags().StringVar(&flags.last, "last", "", "Account last name.")
	client.PersistentFlags().StringVar(&flags.email, "email", "", "Account email.")
	client.PersistentFlags().Uint16Var(&flags.pin, "pin", 0, "Account PIN.")
	client.PersistentFlags().Uint32Var(&flags.ssn, "ssn", 0, "Account SSN.")
	client.PersistentFlags().Uint32Var(&flags.dln, "dln", 0, "Account driver's license number.")
	client.PersistentFlags().Uint32Var(&flags.amount, "amount", 0, "Amount in integer cents.")
	client.PersistentFlags().Uint16Var(&flags.kind, "kind", core.DepositCash, "Deposit kind: 1=cash, 2=check.")
	client.PersistentFlags().Uint32Var(&flags.startID, "start", 0, "Transaction query start id.")
	client.PersistentFlags().Uint16Var(&flags.count, "count", 10, "Transaction query max record count.")

	client.AddCommand(clientCreateAccount)
	client.AddCommand(clientLogon)
	client.AddCommand(clientDeposit)
	client.AddCommand(clientWithdraw)
	client.AddCommand(clientPurchaseStamps)
	client.AddCommand(clientBalance)
	client.AddCommand(clientTransactions)

	cnp.AddCommand(serve)
	cnp.AddCommand(client)
	cnp.AddCommand(inspect)
}

// Execute runs the root command.
func Execute() {
	if err := cnp.Execute(); err != nil {
		os.Exit(1)
	}
}
