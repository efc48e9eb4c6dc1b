package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-albis-sdk/catalog"
	"github.com/jrsteele09/go-albis-sdk/client"
	"github.com/jrsteele09/go-albis-sdk/dispatch"
	"github.com/jrsteele09/go-albis-sdk/documents"
	"github.com/jrsteele09/go-albis-sdk/internal/config"
	clierrors "github.com/jrsteele09/go-albis-sdk/internal/errors"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/jrsteele09/go-albis-sdk/store"
	"github.com/jrsteele09/go-albis-sdk/store/memstore"
	"github.com/jrsteele09/go-albis-sdk/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type app struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	returnType string
	debug      bool

	cfg    *config.Config
	client *client.Client
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Command line client for the Albis leasing API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $ALBIS_CONFIG or ./albis.yaml)")
	root.PersistentFlags().StringVar(&a.returnType, "output", "", "output shape: raw, object or mapping")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log every request before it is sent")

	root.AddCommand(
		a.tokenCommand(),
		a.simpleCommand("ping", "Send a test request", func(ctx context.Context, c *client.Client) (*client.Response, error) {
			return c.Ping(ctx)
		}),
		a.echoCommand(),
		a.logoutCommand(),
		a.passwordCommand(),
		a.applicationCommand(),
		a.lookupCommand(),
		a.ratesCommand(),
		a.documentsCommand(),
		a.frameCommand(),
		a.callCommand(),
		a.endpointsCommand(),
		a.serveFakeCommand(),
	)
	return root
}

// connect loads the configuration and builds the client.
func (a *app) connect(_ *cobra.Command) (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.debug {
		cfg.Albis.DebugRequests = true
		cfg.Log.Level = "debug"
	}
	if a.returnType != "" {
		cfg.Albis.ReturnType = a.returnType
	}
	setLogLevel(cfg.Log.Level)

	sdkCfg, err := cfg.SDK()
	if err != nil {
		return nil, clierrors.Wrapf(err, "configuration")
	}
	if cfg.Credentials.IsZero() {
		log.Warn().Msg("no credentials configured")
	}

	creds := cfg.Credentials
	a.cfg = cfg
	a.client = client.New(sdkCfg, a.newStore(cfg), &creds, client.WithLogger(log.Logger))
	return a.client, nil
}

func (a *app) newStore(cfg *config.Config) store.Store {
	if cfg.Redis.Addr == "" {
		return memstore.New()
	}
	log.Debug().Str("addr", cfg.Redis.Addr).Str("session", cfg.Redis.SessionID).Msg("using redis token store")
	return redisstore.NewFromOptions(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Redis.SessionID, redisstore.WithTTL(cfg.Redis.TTL()))
}

func (a *app) print(resp *client.Response) error {
	value, err := resp.Value()
	if err != nil {
		return err
	}
	if s, ok := value.(string); ok {
		_, err := fmt.Fprintln(a.stdout, s)
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

type operation func(ctx context.Context, c *client.Client) (*client.Response, error)

func (a *app) simpleCommand(use, short string, op operation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := op(cmd.Context(), c)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) tokenCommand() *cobra.Command {
	var renew, details bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a valid bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			if !details {
				tok, err := c.Tokens().GetToken(cmd.Context(), nil, renew)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.stdout, tok)
				return err
			}
			d, err := c.TokenDetails(cmd.Context(), nil, renew, true)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"accessToken": d.AccessToken,
				"expiresIn":   d.ExpiresIn,
				"expiresAt":   d.ExpiresAt,
				"renewAt":     d.RenewAt,
				"claims":      d.Claims,
			})
		},
	}
	cmd.Flags().BoolVar(&renew, "renew", false, "ignore the cached token")
	cmd.Flags().BoolVar(&details, "details", false, "print expiry and claims")
	return cmd
}

func (a *app) echoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "echo DATA",
		Short: "Ask the provider to echo DATA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Echo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the cached token and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			return c.Logout(cmd.Context())
		},
	}
}

func (a *app) passwordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "password ALBIS_NEW_PASSWORD AUTH0_NEW_PASSWORD",
		Short: "Change both passwords",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := c.ChangePassword(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) applicationCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "application", Short: "Read, create, update and cancel applications"}

	byID := func(use, short string, op func(context.Context, *client.Client, int64) (*client.Response, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				c, err := a.connect(cmd)
				if err != nil {
					return err
				}
				resp, err := op(cmd.Context(), c, id)
				if err != nil {
					return err
				}
				return a.print(resp)
			},
		}
	}
	fromFile := func(use, short string, op func(context.Context, *client.Client, mapping.Map) (*client.Response, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " FILE",
			Short: short + " from a JSON file (- for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				application, err := readJSONFile(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				c, err := a.connect(cmd)
				if err != nil {
					return err
				}
				resp, err := op(cmd.Context(), c, application)
				if err != nil {
					return err
				}
				return a.print(resp)
			},
		}
	}

	var reason string
	cancel := byID("cancel", "Cancel an application", func(ctx context.Context, c *client.Client, id int64) (*client.Response, error) {
		return c.CancelApplication(ctx, id, reason)
	})
	cancel.Flags().StringVar(&reason, "reason", "", "cancelation reason")

	cmd.AddCommand(
		byID("get", "Show an application", func(ctx context.Context, c *client.Client, id int64) (*client.Response, error) {
			return c.FindApplication(ctx, id)
		}),
		byID("status", "Show an application's status", func(ctx context.Context, c *client.Client, id int64) (*client.Response, error) {
			return c.GetApplicationStatus(ctx, id)
		}),
		fromFile("save", "Create an application", func(ctx context.Context, c *client.Client, m mapping.Map) (*client.Response, error) {
			return c.SaveApplication(ctx, m)
		}),
		fromFile("update", "Update an application", func(ctx context.Context, c *client.Client, m mapping.Map) (*client.Response, error) {
			return c.UpdateApplication(ctx, m)
		}),
		cancel,
	)
	return cmd
}

func (a *app) lookupCommand() *cobra.Command {
	lookups := map[string]operation{
		catalog.LegalForms:     func(ctx context.Context, c *client.Client) (*client.Response, error) { return c.GetLegalForms(ctx) },
		catalog.Salutations:    func(ctx context.Context, c *client.Client) (*client.Response, error) { return c.GetSalutations(ctx) },
		catalog.ProductGroups:  func(ctx context.Context, c *client.Client) (*client.Response, error) { return c.GetProductGroups(ctx) },
		catalog.ContractTypes:  func(ctx context.Context, c *client.Client) (*client.Response, error) { return c.GetContractTypes(ctx) },
		catalog.PaymentMethods: func(ctx context.Context, c *client.Client) (*client.Response, error) { return c.GetPaymentMethods(ctx) },
	}
	return &cobra.Command{
		Use:       "lookup NAME",
		Short:     "List legal-forms, salutations, product-groups, contract-types or payment-methods",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{catalog.LegalForms, catalog.Salutations, catalog.ProductGroups, catalog.ContractTypes, catalog.PaymentMethods},
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := lookups[args[0]]
			if !ok {
				return clierrors.Wrapf(clierrors.ErrUnknownLookup, "%s", args[0])
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := op(cmd.Context(), c)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) ratesCommand() *cobra.Command {
	var q client.RateQuery
	var downPayment, purchasePrice string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Calculate leasing rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if q.DownPayment, err = parseAmount("down-payment", downPayment); err != nil {
				return err
			}
			if q.PurchasePrice, err = parseAmount("purchase-price", purchasePrice); err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := c.GetRates(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.ContractType, "contract-type", 0, "contract type id")
	f.StringVar(&downPayment, "down-payment", "0", "down payment amount")
	f.StringVar(&q.Object, "object", "", "leased object name")
	f.IntVar(&q.PaymentMethod, "payment-method", 0, "payment method id")
	f.IntVar(&q.ProductGroup, "product-group", 0, "product group id")
	f.StringVar(&purchasePrice, "purchase-price", "", "purchase price amount")
	f.IntVar(&q.Provision, "provision", 0, "provision type id")
	_ = cmd.MarkFlagRequired("purchase-price")
	return cmd
}

func (a *app) documentsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "documents", Short: "Download and upload application documents"}

	var out string
	var q client.DocumentQuery
	var purchasePrice, rate string
	get := &cobra.Command{
		Use:   "get ID",
		Short: "Download the application PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if q.ApplicationID, err = parseID(args[0]); err != nil {
				return err
			}
			if q.PurchasePrice, err = parseAmount("purchase-price", purchasePrice); err != nil {
				return err
			}
			if q.Rate, err = parseAmount("rate", rate); err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			content, err := c.GetDocuments(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.writeDocument(content, out)
		},
	}
	get.Flags().StringVar(&purchasePrice, "purchase-price", "0", "purchase price")
	get.Flags().StringVar(&rate, "rate", "0", "payment rate")
	get.Flags().StringVar(&q.IBAN, "iban", "", "IBAN referenced by the document")
	get.Flags().StringVarP(&out, "out", "o", "", "write the decoded PDF to this file")

	var contractOut string
	contract := &cobra.Command{
		Use:   "contract ID",
		Short: "Download the contract PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			content, err := c.GetContractDocuments(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.writeDocument(content, contractOut)
		},
	}
	contract.Flags().StringVarP(&contractOut, "out", "o", "", "write the decoded PDF to this file")

	var docType, ext string
	var toContract bool
	upload := &cobra.Command{
		Use:   "upload ID FILE...",
		Short: "Upload files as documents of an application",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := documents.ParseType(docType)
			if err != nil {
				return clierrors.Usagef("--type: %v", err)
			}
			docs := make([]documents.Document, 0, len(args)-1)
			for _, path := range args[1:] {
				fileExt := ext
				if fileExt == "" {
					fileExt = strings.TrimPrefix(extension(path), ".")
				}
				doc, err := documents.FromFile(t, fileExt, path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			var resp *client.Response
			if toContract {
				resp, err = c.UploadContractDocuments(cmd.Context(), id, docs...)
			} else {
				resp, err = c.UploadDocuments(cmd.Context(), id, docs...)
			}
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	upload.Flags().StringVar(&docType, "type", strconv.Itoa(int(documents.Misc)), "document type: 1 identity card, 2 possession form, 3 signed contract, 4 debit authorization, 99 misc")
	upload.Flags().StringVar(&ext, "ext", "", "file extension (default from file name)")
	upload.Flags().BoolVar(&toContract, "contract", false, "upload as contract documents")

	cmd.AddCommand(get, contract, upload)
	return cmd
}

func (a *app) frameCommand() *cobra.Command {
	frames := map[string]func(*client.Client) func(context.Context, mapping.Map) (*client.Response, error){
		"application":      func(c *client.Client) func(context.Context, mapping.Map) (*client.Response, error) { return c.GetFrameApplication },
		"sub-applications": func(c *client.Client) func(context.Context, mapping.Map) (*client.Response, error) { return c.GetFrameSubApplications },
		"rates":            func(c *client.Client) func(context.Context, mapping.Map) (*client.Response, error) { return c.GetFrameRates },
	}
	return &cobra.Command{
		Use:       "frame application|sub-applications|rates [KEY=VALUE...]",
		Short:     "Query frame contracts",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{"application", "sub-applications", "rates"},
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := frames[args[0]]
			if !ok {
				return clierrors.Usagef("unknown frame query %q", args[0])
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := op(c)(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) callCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "call OPERATION [JSON]",
		Short: "Send a JSON payload to any catalog operation",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if len(args) == 2 {
				m, err := mapping.Parse([]byte(args[1]))
				if err != nil {
					return clierrors.Usagef("payload: %v", err)
				}
				payload = m
			}
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}
			resp, err := c.Call(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) endpointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List the operations the client knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, e := range catalog.All() {
				encoding := "json"
				if e.Encoding == dispatch.Form {
					encoding = "form"
				}
				if _, err := fmt.Fprintf(a.stdout, "%-26s %-7s %-24s %-5s %s\n", e.Name, e.Method, e.Path, encoding, strings.Join(e.Fields, ",")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) writeDocument(content, out string) error {
	if out == "" {
		_, err := fmt.Fprintln(a.stdout, content)
		return err
	}
	pdf, err := documents.Decode(content)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, pdf, 0o600); err != nil {
		return clierrors.Wrapf(err, "writing %s", out)
	}
	log.Info().Str("file", out).Int("bytes", len(pdf)).Msg("document written")
	return nil
}

func readJSONFile(stdin io.Reader, path string) (mapping.Map, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, clierrors.Wrapf(err, "reading %s", path)
	}
	m, err := mapping.Parse(data)
	if err != nil {
		return nil, clierrors.Usagef("%s is not a JSON object", path)
	}
	return m, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, clierrors.Usagef("invalid application id %q", s)
	}
	return id, nil
}

func parseAmount(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, clierrors.Usagef("--%s: invalid amount %q", name, s)
	}
	return d, nil
}

func parseParams(args []string) (mapping.Map, error) {
	params := mapping.Map{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, clierrors.Usagef("expected KEY=VALUE, got %q", arg)
		}
		params[k] = v
	}
	return params, nil
}

func extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsAny(path[i:], `/\`) {
		return path[i:]
	}
	return ""
}
