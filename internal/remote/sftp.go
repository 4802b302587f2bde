package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"sftp-gateway/internal/config"
	"sftp-gateway/internal/metrics"
	"sftp-gateway/internal/model"
)

type SFTPDialer struct {
	cfg     config.SFTPConfig
	hostKey ssh.HostKeyCallback
}

func NewSFTPDialer(cfg config.SFTPConfig) (*SFTPDialer, error) {
	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		callback, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts %q: %w", cfg.KnownHostsFile, err)
		}
		hostKey = callback
	} else {
		slog.Warn("SFTP_KNOWN_HOSTS not set; remote host key will not be verified", "host", cfg.Host)
	}

	return &SFTPDialer{cfg: cfg, hostKey: hostKey}, nil
}

func (d *SFTPDialer) Dial(ctx context.Context) (Session, error) {
	session, err := d.dial(ctx)
	metrics.RecordRemoteSession(err)
	return session, err
}

func (d *SFTPDialer) dial(ctx context.Context) (Session, error) {
	addr := d.cfg.Addr()
	password := d.cfg.Password

	sshConfig := &ssh.ClientConfig{
		User: d.cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_ string, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: d.hostKey,
		Timeout:         d.cfg.Timeout,
	}

	dialer := net.Dialer{Timeout: d.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, addr, err)
	}

	// The handshake has no context of its own; bound it with a deadline.
	_ = conn.SetDeadline(time.Now().Add(d.cfg.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ssh handshake with %s: %w", ErrConnection, addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(sshConn, chans, reqs)
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("%w: start sftp subsystem: %w", ErrConnection, err)
	}

	slog.Debug("sftp session opened", "addr", addr, "user", d.cfg.User)
	return &sftpSession{ssh: sshClient, client: sftpClient}, nil
}

type sftpSession struct {
	ssh    *ssh.Client
	client *sftp.Client

	closeOnce sync.Once
	closeErr  error
}

func (s *sftpSession) List(ctx context.Context, dir string) ([]model.RemoteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrList, dir, err)
	}

	infos, err := s.client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrList, dir, err)
	}

	entries := make([]model.RemoteEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, toEntry(path.Join(dir, info.Name()), info))
	}

	return entries, nil
}

func (s *sftpSession) Stat(ctx context.Context, p string) (model.RemoteEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.RemoteEntry{}, err
	}

	info, err := s.client.Stat(p)
	if err != nil {
		return model.RemoteEntry{}, fmt.Errorf("%w: stat %s: %w", ErrOperation, p, err)
	}

	return toEntry(p, info), nil
}

func (s *sftpSession) Open(ctx context.Context, p string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := s.client.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrOperation, p, err)
	}

	return file, nil
}

func (s *sftpSession) Rename(ctx context.Context, oldPath string, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrOperation, oldPath, newPath, err)
	}

	return nil
}

func (s *sftpSession) Touch(ctx context.Context, p string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.Chtimes(p, at, at); err != nil {
		return fmt.Errorf("%w: chtimes %s: %w", ErrOperation, p, err)
	}

	return nil
}

func (s *sftpSession) MkdirAll(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.client.MkdirAll(dir); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrOperation, dir, err)
	}

	return nil
}

// Delete removes a file, or a directory together with its contents.
func (s *sftpSession) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDelete, p, err)
	}

	info, err := s.client.Lstat(p)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDelete, p, err)
	}

	if info.IsDir() {
		err = s.client.RemoveAll(p)
	} else {
		err = s.client.Remove(p)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDelete, p, err)
	}

	return nil
}

func (s *sftpSession) Close() error {
	s.closeOnce.Do(func() {
		sftpErr := s.client.Close()
		sshErr := s.ssh.Close()
		if sftpErr != nil && !errors.Is(sftpErr, io.EOF) {
			s.closeErr = sftpErr
		} else if sshErr != nil && !errors.Is(sshErr, net.ErrClosed) {
			s.closeErr = sshErr
		}
	})
	return s.closeErr
}

func toEntry(p string, info os.FileInfo) model.RemoteEntry {
	return model.RemoteEntry{
		Name:       info.Name(),
		Path:       p,
		Size:       info.Size(),
		IsDir:      info.IsDir(),
		Mode:       info.Mode().String(),
		ModifiedAt: info.ModTime(),
	}
}
