package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/leapstack-labs/lenses/internal/ui"
	"github.com/leapstack-labs/lenses/internal/ui/features/graph/pages"
	"github.com/leapstack-labs/lenses/internal/watch"
	"github.com/spf13/cobra"
)

// ViewOptions holds options for the view command that are not part of the
// viewer configuration.
type ViewOptions struct {
	Host string
}

// NewViewCommand creates the view command.
func NewViewCommand() *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view [file.dot]",
		Short: "Serve a live, interactive view of a DOT graph",
		Long: `Serve a web page with an interactive chart of a DOT graph file.

The file's modification time is checked on a fixed interval; when it changes
the graph is parsed again, laid out with a force-directed layout and pushed
to open pages. Filesystem notifications nudge an early check when --watch
is on.`,
		Example: `  # Watch graph.dot on http://127.0.0.1:8050
  lenses view

  # Another file, port and interval
  lenses view docs/graph.dot --port 9000 --interval 500ms

  # Start even if the file does not exist yet
  lenses view --placeholder-on-error --open`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "127.0.0.1", "Interface to listen on")
	cmd.Flags().Int("port", 0, "Port to serve on (default: viewer.port, 8050)")
	cmd.Flags().Duration("interval", 0, "Modification check interval (default: viewer.interval, 1s)")
	cmd.Flags().Bool("watch", true, "Use filesystem notifications between checks")
	cmd.Flags().Bool("open", false, "Open the page in the default browser")
	cmd.Flags().String("title", "", "Chart title")
	cmd.Flags().Bool("placeholder-on-error", false, "Show an empty chart instead of failing when the file cannot be read")

	return cmd
}

func runView(cmd *cobra.Command, args []string, opts *ViewOptions) error {
	cc := NewCommandContext(cmd)
	vc := cc.Cfg.Viewer
	if len(args) == 1 {
		vc.DotFile = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller, err := watch.NewPoller(ctx, watch.Config{
		Path:               vc.DotFile,
		Title:              vc.Title,
		Logger:             cc.Logger,
		PlaceholderOnError: vc.PlaceholderOnError,
	})
	if err != nil {
		return err
	}

	server := ui.NewServer(ui.Config{
		Poller:   poller,
		Host:     opts.Host,
		Port:     vc.Port,
		Interval: vc.Interval,
		Watch:    vc.Watch,
		Heading:  pages.Heading,
		Logger:   cc.Logger,
	})

	ln, err := net.Listen("tcp", server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr(), err)
	}
	url := "http://" + browserAddr(ln.Addr())

	if vc.AutoOpen {
		go openBrowser(ctx, url)
	}

	cc.Renderer.KeyValue("Viewing", vc.DotFile)
	cc.Renderer.KeyValue("Serving", url)
	cc.Renderer.Muted("Press Ctrl+C to stop")

	return server.ServeListener(ctx, ln)
}

// browserAddr turns a listen address into one a browser can reach.
func browserAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	host := "localhost"
	if !tcp.IP.IsUnspecified() && !tcp.IP.IsLoopback() {
		host = tcp.IP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(ctx context.Context, url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}
