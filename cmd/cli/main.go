package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/acctledger/internal/adapter/http/dto"
	"github.com/iho/acctledger/internal/adapter/http/handler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// apiClient talks to the ledger HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Body.Error, e.Status, e.Body.Message)
	}

	if e.Body.Error != "" {
		return fmt.Sprintf("%s (status %d)", e.Body.Error, e.Status)
	}

	return fmt.Sprintf("request failed with status %d", e.Status)
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		asJSON  bool
	)

	client := &apiClient{}

	rootCmd := &cobra.Command{
		Use:           "acctledger-cli",
		Short:         "Account ledger CLI tool",
		Long:          `A command line interface for interacting with the account ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			client.baseURL = baseURL
			client.http = &http.Client{Timeout: timeout}
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		accountsCmd(client, &asJSON),
		transferCmd(client, &asJSON),
		importCmd(client, &asJSON),
		exportCmd(client),
		ledgerCmd(client, &asJSON),
	)

	return rootCmd
}

func accountsCmd(client *apiClient, asJSON *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var (
		search string
		limit  int
		offset int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if search != "" {
				query.Set("search", search)
			}

			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			var resp dto.ListAccountsResponse
			if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/accounts?"+query.Encode(), nil, "", &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *asJSON {
				return printJSON(out, resp)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tBALANCE\tID")

			for _, account := range resp.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", account.Slug, truncate(account.Name, 40), account.Balance, account.ID)
			}

			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d accounts, total balance %s\n", resp.TotalAccounts, resp.TotalBalance)

			return nil
		},
	}
	listCmd.Flags().StringVar(&search, "search", "", "Case-insensitive name filter")
	listCmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	getCmd := &cobra.Command{
		Use:   "get <slug|id>",
		Short: "Show an account and its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := client.getAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var txns dto.ListTransactionsResponse

			path := "/api/v1/accounts/" + url.PathEscape(account.Slug) + "/transactions"
			if err := client.do(cmd.Context(), http.MethodGet, path, nil, "", &txns); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *asJSON {
				return printJSON(out, struct {
					Account      *dto.AccountResponse       `json:"account"`
					Transactions []*dto.TransactionResponse `json:"transactions"`
				}{account, txns.Transactions})
			}

			fmt.Fprintf(out, "%s (%s)\nID:      %s\nBalance: %s\n", account.Name, account.Slug, account.ID, account.Balance)

			if len(txns.Transactions) == 0 {
				return nil
			}

			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDIRECTION\tAMOUNT\tCOUNTERPARTY")

			for _, txn := range txns.Transactions {
				direction, counterparty := "in", txn.Sender
				if txn.Sender == account.ID {
					direction, counterparty = "out", txn.Receiver
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", txn.Date.Format(time.RFC3339), direction, txn.Amount, counterparty)
			}

			return tw.Flush()
		},
	}

	cmd.AddCommand(listCmd, getCmd)

	return cmd
}

func transferCmd(client *apiClient, asJSON *bool) *cobra.Command {
	var (
		from           string
		to             string
		amount         string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := client.getAccount(cmd.Context(), from)
			if err != nil {
				return fmt.Errorf("sender: %w", err)
			}

			receiver, err := client.getAccount(cmd.Context(), to)
			if err != nil {
				return fmt.Errorf("receiver: %w", err)
			}

			body, err := json.Marshal(dto.CreateTransactionRequest{
				Sender:   sender.ID,
				Receiver: receiver.ID,
				Amount:   amount,
			})
			if err != nil {
				return err
			}

			var txn dto.TransactionResponse
			if err := client.do(cmd.Context(), http.MethodPost, "/api/v1/transactions", bytes.NewReader(body), idempotencyKey, &txn); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *asJSON {
				return printJSON(out, txn)
			}

			fmt.Fprintf(out, "Transferred %s from %s to %s (transaction %s)\n", txn.Amount, sender.Slug, receiver.Slug, txn.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Sender slug or id")
	cmd.Flags().StringVar(&to, "to", "", "Receiver slug or id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key sent with the request")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func importCmd(client *apiClient, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create or update accounts from an ID,Name,Balance file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			var buf bytes.Buffer

			form := multipart.NewWriter(&buf)

			part, err := form.CreateFormFile(handler.ImportFormField, filepath.Base(args[0]))
			if err != nil {
				return err
			}

			if _, err := io.Copy(part, file); err != nil {
				return err
			}

			if err := form.Close(); err != nil {
				return err
			}

			var report dto.ImportReportResponse
			if err := client.doWithType(cmd.Context(), http.MethodPost, "/api/v1/accounts/import", &buf, form.FormDataContentType(), "", &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *asJSON {
				return printJSON(out, report)
			}

			fmt.Fprintf(out, "created %d, updated %d, failed %d\n", report.Created, report.Updated, report.Failed)

			for _, row := range report.Rows {
				if row.Error != "" {
					fmt.Fprintf(out, "line %d: %s (%s)\n", row.Line, row.Error, row.Kind)
				}
			}

			return nil
		},
	}
}

func exportCmd(client *apiClient) *cobra.Command {
	var (
		output string
		search string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download accounts as an ID,Name,Balance file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/export"
			if search != "" {
				path += "?" + url.Values{"search": {search}}.Encode()
			}

			data, err := client.send(cmd.Context(), http.MethodGet, path, nil, "", "")
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default stdout)")
	cmd.Flags().StringVar(&search, "search", "", "Only export accounts whose name contains this text")

	return cmd
}

func ledgerCmd(client *apiClient, asJSON *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show account count and total balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary dto.LedgerSummaryResponse
			if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/summary", nil, "", &summary); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *asJSON {
				return printJSON(out, summary)
			}

			fmt.Fprintf(out, "Accounts:      %d\nTotal balance: %s\n", summary.TotalAccounts, summary.TotalBalance)

			return nil
		},
	}

	cmd.AddCommand(summaryCmd)

	return cmd
}

func (c *apiClient) getAccount(ctx context.Context, key string) (*dto.AccountResponse, error) {
	var account dto.AccountResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/accounts/"+url.PathEscape(key), nil, "", &account); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("account %q not found", key)
		}

		return nil, err
	}

	return &account, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, idempotencyKey string, out any) error {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	return c.doWithType(ctx, method, path, body, contentType, idempotencyKey, out)
}

func (c *apiClient) doWithType(ctx context.Context, method, path string, body io.Reader, contentType, idempotencyKey string, out any) error {
	data, err := c.send(ctx, method, path, body, contentType, idempotencyKey)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// send performs the request and returns the raw body of a 2xx answer.
func (c *apiClient) send(ctx context.Context, method, path string, body io.Reader, contentType, idempotencyKey string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, &apiErr.Body)

		return nil, apiErr
	}

	return data, nil
}

// isNotFound reports whether err is a 404 from the API.
func isNotFound(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	if n <= 3 {
		return string(runes[:n])
	}

	return string(runes[:n-3]) + "..."
}
