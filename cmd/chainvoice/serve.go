package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/config"
	"github.com/chainvoice/chainvoice-go/contract"
	"github.com/chainvoice/chainvoice-go/gateway"
	chainvoicehttp "github.com/chainvoice/chainvoice-go/http"
	"github.com/chainvoice/chainvoice-go/ipfs"
	"github.com/chainvoice/chainvoice-go/qr"
	"github.com/chainvoice/chainvoice-go/signer"
	"github.com/chainvoice/chainvoice-go/wallet"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the invoice API server",
		Long:  `Start the HTTP server that exposes invoices, payments, wallet state, and QR endpoints.`,
		RunE:  runServe,
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	network, known := chainvoice.LookupByChainID(cfg.ChainID)
	if !known {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"configured chain id not in registry", chainvoice.ErrUnsupportedNetwork).
			WithDetails("chainId", cfg.ChainID)
	}
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = network.RPCURL
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	defer client.Close()

	var transact *bind.TransactOpts
	var signerAddress string
	if cfg.Signer != nil {
		sg, err := newSigner(cfg.Signer)
		if err != nil {
			return err
		}
		transact, err = sg.Transactor(new(big.Int).SetUint64(cfg.ChainID))
		if err != nil {
			return err
		}
		signerAddress = sg.Address().Hex()
	}

	contractAddress := cfg.ContractAddress
	factory := func(n chainvoice.Network) (*gateway.Bindings, error) {
		if contractAddress == "" {
			return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
				"no invoice contract configured", chainvoice.ErrUnsupportedNetwork)
		}
		if !n.HasToken() {
			return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
				fmt.Sprintf("network %q has no token configured", n.Name), chainvoice.ErrUnsupportedNetwork)
		}
		invoice, err := contract.NewEthBinding(client, common.HexToAddress(contractAddress), contract.InvoiceABI, transact)
		if err != nil {
			return nil, err
		}
		token, err := contract.NewEthBinding(client, common.HexToAddress(n.TokenAddress), contract.ERC20ABI, transact)
		if err != nil {
			return nil, err
		}
		return &gateway.Bindings{Invoice: invoice, Token: token, InvoiceAddress: contractAddress}, nil
	}

	store := ipfs.NewPinataClient(cfg.Pinata.APIKey, cfg.Pinata.APISecret)
	if cfg.Pinata.GatewayURL != "" {
		store.GatewayURL = cfg.Pinata.GatewayURL
	}

	var provider wallet.Provider
	if signerAddress != "" {
		provider = wallet.NewRPCProvider(client, signerAddress)
	} else {
		provider = wallet.NewRPCProvider(client)
	}

	// The synchronizer drives the gateway's bindings on chain changes and
	// reads token balances back through it; the gateway reads the caller
	// address from the synchronizer.
	var sync *wallet.Synchronizer
	gw := gateway.New(nil, store,
		gateway.WithBindingFactory(factory),
		gateway.WithCaller(func() (string, bool) {
			snap := sync.Snapshot()
			return snap.Address, snap.Connected
		}),
	)
	sync = wallet.NewSynchronizer(provider,
		wallet.WithRebinder(gw),
		wallet.WithTokenReader(gw),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("wallet event loop stopped", "error", err)
		}
	}()

	if err := sync.Connect(ctx); err != nil {
		logger.Warn("initial wallet connect failed", "error", err)
	}

	apiServer := chainvoicehttp.NewServer(gw, sync,
		chainvoicehttp.WithLogger(logger),
		chainvoicehttp.WithQRDefaults(cfg.QRSize(), qr.Level(cfg.QRLevel())),
	)

	httpServer := &nethttp.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "chainId", cfg.ChainID, "network", network.Name)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newSigner(cfg *config.SignerConfig) (*signer.Signer, error) {
	switch {
	case cfg.PrivateKey != "":
		return signer.New(signer.WithPrivateKey(cfg.PrivateKey))
	case cfg.KeystorePath != "":
		return signer.New(signer.WithKeystore(cfg.KeystorePath, cfg.KeystorePassword))
	case cfg.Mnemonic != "":
		return signer.New(signer.WithMnemonic(cfg.Mnemonic, uint32(cfg.AccountIndex)))
	default:
		return nil, chainvoice.InvalidFieldError("signer", "no key source configured")
	}
}
