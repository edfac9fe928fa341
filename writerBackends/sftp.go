package writerbackends

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"vodforge/logger"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTP writes artifacts below a remote root directory. It has no notion of
// signed URLs; SignedDownloadURL returns an sftp:// locator.
type SFTP struct {
	host       string
	port       string
	remoteRoot string
	config     *ssh.ClientConfig
}

// NewSFTP builds an SFTP gateway.
// accessInfo should contain at least: host, user. Optionally: port (default 22),
// remoteRoot (default "/"), password or privateKey (base64 or raw PEM).
func NewSFTP(accessInfo map[string]string) (*SFTP, error) {
	host := accessInfo["host"]
	port := accessInfo["port"]
	if port == "" {
		port = "22"
	}
	user := accessInfo["user"]
	if host == "" || user == "" {
		return nil, fmt.Errorf("missing required accessInfo keys: host, user")
	}
	remoteRoot := accessInfo["remoteRoot"]
	if remoteRoot == "" {
		remoteRoot = "/"
	}

	var auths []ssh.AuthMethod
	if privateKey := accessInfo["privateKey"]; privateKey != "" {
		// try to decode as base64, fall back to raw
		keyBytes, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil {
			keyBytes = []byte(privateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	} else if password := accessInfo["password"]; password != "" {
		auths = append(auths, ssh.Password(password))
	} else {
		return nil, fmt.Errorf("no auth method provided; set password or privateKey in accessInfo")
	}

	return &SFTP{
		host:       host,
		port:       port,
		remoteRoot: remoteRoot,
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            auths,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         10 * time.Second,
		},
	}, nil
}

func (g *SFTP) remotePath(bucket, key string) string {
	return path.Join(g.remoteRoot, bucket, key)
}

// SignedDownloadURL returns the sftp:// locator of the object.
func (g *SFTP) SignedDownloadURL(ctx context.Context, bucket, key string) (string, error) {
	return fmt.Sprintf("sftp://%s%s", net.JoinHostPort(g.host, g.port), g.remotePath(bucket, key)), nil
}

// Upload copies body to the remote file, creating parent directories.
func (g *SFTP) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	addr := net.JoinHostPort(g.host, g.port)
	remotePath := g.remotePath(bucket, key)

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: dial tcp %s: %v", ErrTransport, addr, err)
	}

	// perform SSH handshake on the established connection
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, g.config)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("%w: ssh handshake with %s: %v", ErrTransport, addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)
	defer sshClient.Close()

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return "", fmt.Errorf("%w: create sftp client: %v", ErrTransport, err)
	}
	defer sftpClient.Close()

	dir := path.Dir(remotePath)
	if err := mkdirAllSFTP(sftpClient, dir); err != nil {
		return "", fmt.Errorf("%w: ensure remote dir %s: %v", ErrTransport, dir, err)
	}

	f, err := sftpClient.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: create remote file %s: %v", ErrTransport, remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("%w: copy to remote file %s: %v", ErrTransport, remotePath, err)
	}

	logger.Debugf("Uploaded '%s' to %s", remotePath, addr)
	return g.SignedDownloadURL(ctx, bucket, key)
}

// mkdirAllSFTP mimics os.MkdirAll for an SFTP server by creating each segment of the path.
func mkdirAllSFTP(client *sftp.Client, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	parts := strings.Split(dir, "/")
	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}

	for _, p := range parts {
		if p == "" {
			continue
		}
		cur = path.Join(cur, p)
		if _, err := client.Stat(cur); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("stat %s: %w", cur, err)
			}
			// another upload may have created it concurrently
			if err := client.Mkdir(cur); err != nil {
				if _, statErr := client.Stat(cur); statErr != nil {
					return fmt.Errorf("mkdir %s: %w", cur, err)
				}
			}
		}
	}
	return nil
}
