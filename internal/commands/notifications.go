package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"evcal/internal/config"
	"evcal/internal/model"
)

// apiClient talks to a running "evcal serve". Notifications live only in
// the server process, so this command cannot read them from disk.
type apiClient struct {
	base   string
	auth   *config.BasicAuthConfig
	client *http.Client
}

func newAPIClient(cfg *config.Config, server string) *apiClient {
	if server == "" {
		server = "http://" + cfg.Listen
	}
	return &apiClient{
		base:   strings.TrimRight(server, "/"),
		auth:   cfg.BasicAuth,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.auth != nil && c.auth.Username != "" {
		req.SetBasicAuth(c.auth.Username, c.auth.Password)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("contact server %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func addNotifications(topLevel *cobra.Command, ro *rootOptions) {
	server := ""
	recent := 0
	read := ""
	dismiss := ""
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Show, mark read or dismiss notifications of a running server.",
		Example: `
evcal notifications
evcal notifications --recent 10
evcal notifications --read 3f1c...
evcal notifications --dismiss 3f1c...
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			c := newAPIClient(cfg, server)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			switch {
			case read != "":
				if err := c.do(ctx, http.MethodPost, "/api/notifications/"+url.PathEscape(read)+"/read", nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "marked read", read)
			case dismiss != "":
				if err := c.do(ctx, http.MethodDelete, "/api/notifications/"+url.PathEscape(dismiss), nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "dismissed", dismiss)
			default:
				var resp struct {
					Notifications []model.Notification `json:"notifications"`
					Unread        int                  `json:"unread"`
					Total         int                  `json:"total"`
				}
				path := "/api/notifications"
				if recent > 0 {
					path += "?recent=" + strconv.Itoa(recent)
				}
				if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", underline("Notifications"), faint(fmt.Sprintf("- %d unread of %d", resp.Unread, resp.Total)))
				printNotifications(out, resp.Notifications)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Server base URL (default http://<listen> from config).")
	cmd.Flags().IntVar(&recent, "recent", 0, "How many to show (default: the server's display limit).")
	cmd.Flags().StringVar(&read, "read", "", "Mark the notification with this id as read.")
	cmd.Flags().StringVar(&dismiss, "dismiss", "", "Dismiss the notification with this id.")
	cmd.MarkFlagsMutuallyExclusive("read", "dismiss")
	topLevel.AddCommand(cmd)
}
