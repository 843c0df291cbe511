// cmd/panelctl/settings.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tamzrod/panel-controller/internal/httpapi"
	"github.com/tamzrod/panel-controller/internal/settings"
)

var (
	settingsDB string

	setSSID string
	setIP   string
	setGW   string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or change the stored network settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored network settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store new network settings",
	Long: `Store new station credentials and addressing. The password is read from
PANEL_WIFI_PASSWORD, or prompted for when unset. The netmask is always
255.255.255.0. The change takes effect on the next start.`,
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.PersistentFlags().StringVar(&settingsDB, "db", "", "Settings database (overrides config)")

	settingsSetCmd.Flags().StringVar(&setSSID, "ssid", "", "Station SSID")
	settingsSetCmd.Flags().StringVar(&setIP, "ip", "", "Static IPv4 address")
	settingsSetCmd.Flags().StringVar(&setGW, "gw", "", "Gateway (factory default when empty)")
	_ = settingsSetCmd.MarkFlagRequired("ssid")
	_ = settingsSetCmd.MarkFlagRequired("ip")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func openSettings() (*settings.Store, error) {
	path := settingsDB
	if path == "" {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Panel.Settings.Path
	}
	return settings.Open(path)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	st, err := openSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ssid:  %s\n", n.SSID)
	fmt.Fprintf(out, "pass:  %s\n", strings.Repeat("*", len(n.Password)))
	fmt.Fprintf(out, "ip:    %s\n", n.IP)
	fmt.Fprintf(out, "gw:    %s\n", n.Gateway)
	fmt.Fprintf(out, "mask:  %s\n", n.Netmask)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	pass, err := readPassword()
	if err != nil {
		return err
	}

	n := settings.Network{
		SSID:     setSSID,
		Password: pass,
		IP:       setIP,
		Gateway:  setGW,
		Netmask:  httpapi.DefaultNetmask,
	}
	if n.Gateway == "" {
		n.Gateway = settings.Defaults().Gateway
	}
	if err := n.Validate(); err != nil {
		return err
	}

	st, err := openSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Save(cmd.Context(), n); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved.")
	return nil
}

// readPassword checks the environment first, then prompts without echo.
func readPassword() (string, error) {
	if pw, ok := os.LookupEnv("PANEL_WIFI_PASSWORD"); ok {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		// Not a terminal; read one line instead.
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(b), nil
}
