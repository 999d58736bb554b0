package esx

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"go-vnicmap/internal/logging"
	"go-vnicmap/internal/models"
)

const (
	cmdVSwitchList = "esxcli network vswitch standard list"
	cmdNICList     = "esxcli network nic list"
)

// SSHFetcher runs esxcli on the host over SSH. Uplink names double as pnic
// keys.
type SSHFetcher struct {
	Host     string
	Port     int
	User     string
	Password string
	Insecure bool
	Timeout  time.Duration
}

func (f *SSHFetcher) FetchHost(ctx context.Context) (models.HostInventory, error) {
	logger := logging.WithComponent("esx").With().Str("host", f.Host).Str("source", "ssh").Logger()

	client, err := f.connect(ctx)
	if err != nil {
		return models.HostInventory{}, err
	}
	defer client.Close()

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	vswitchOut, err := runCommand(client, cmdVSwitchList)
	if err != nil {
		return models.HostInventory{}, err
	}
	nicOut, err := runCommand(client, cmdNICList)
	if err != nil {
		return models.HostInventory{}, err
	}

	switches, err := ParseVSwitchList(vswitchOut)
	if err != nil {
		return models.HostInventory{}, err
	}
	pnics, err := ParseNICList(nicOut)
	if err != nil {
		return models.HostInventory{}, err
	}
	logger.Debug().Int("vswitches", len(switches)).Int("pnics", len(pnics)).Msg("esxcli output parsed")

	return assemble(f.Host, switches, pnics, logger), nil
}

func (f *SSHFetcher) connect(ctx context.Context) (*ssh.Client, error) {
	cfg, err := f.clientConfig()
	if err != nil {
		return nil, err
	}

	port := f.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(f.Host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// clientConfig authenticates with the password, offered both as plain password
// auth and as keyboard-interactive, which ESXi uses by default.
func (f *SSHFetcher) clientConfig() (*ssh.ClientConfig, error) {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if !f.Insecure {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate known_hosts: %w", err)
		}
		hostKeyCallback, err = knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
	}

	password := f.Password
	return &ssh.ClientConfig{
		User: f.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

func runCommand(client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	out, err := session.Output(cmd)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return string(out), nil
}

// ParseVSwitchList reads the output of "esxcli network vswitch standard list":
// one unindented block header per vSwitch followed by indented "Key: value"
// lines, of which Name and Uplinks are used.
func ParseVSwitchList(out string) ([]VSwitch, error) {
	var switches []VSwitch
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			switches = append(switches, VSwitch{Name: line})
			continue
		}
		if len(switches) == 0 {
			return nil, fmt.Errorf("%w: attribute before vswitch header: %q", ErrUnexpectedOutput, line)
		}
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		current := &switches[len(switches)-1]
		switch key {
		case "Name":
			current.Name = strings.TrimSpace(value)
		case "Uplinks":
			current.Uplinks = splitList(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return switches, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseNICList reads the fixed-width table printed by "esxcli network nic
// list". Column boundaries come from the dashed separator line under the
// header.
func ParseNICList(out string) ([]Pnic, error) {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")

	headerIdx := -1
	for i := 0; i+1 < len(lines); i++ {
		if strings.HasPrefix(lines[i], "Name") && strings.HasPrefix(lines[i+1], "---") {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: nic list header not found", ErrUnexpectedOutput)
	}

	columns := columnSpans(lines[headerIdx+1])
	nameCol, macCol := -1, -1
	for i, col := range columns {
		switch field(lines[headerIdx], col) {
		case "Name":
			nameCol = i
		case "MAC Address":
			macCol = i
		}
	}
	if nameCol < 0 || macCol < 0 {
		return nil, fmt.Errorf("%w: nic list lacks Name or MAC Address column", ErrUnexpectedOutput)
	}

	var pnics []Pnic
	for _, line := range lines[headerIdx+2:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name := field(line, columns[nameCol])
		pnics = append(pnics, Pnic{Key: name, Device: name, MAC: field(line, columns[macCol])})
	}
	return pnics, nil
}

type span struct {
	start, end int
}

// columnSpans returns the start of each dash run; each column extends to the
// start of the next one, and the last one to the end of the line.
func columnSpans(sep string) []span {
	var spans []span
	for i := 0; i < len(sep); i++ {
		if sep[i] != '-' || (i > 0 && sep[i-1] == '-') {
			continue
		}
		if len(spans) > 0 {
			spans[len(spans)-1].end = i
		}
		spans = append(spans, span{start: i, end: -1})
	}
	return spans
}

func field(line string, s span) string {
	if s.start >= len(line) {
		return ""
	}
	end := s.end
	if end < 0 || end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[s.start:end])
}
