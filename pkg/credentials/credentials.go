// SPDX-License-Identifier: Apache-2.0
// Package credentials defines the player identity handed to a launch.
// Obtaining and refreshing tokens happens elsewhere; this package only reads
// the resulting record.
package credentials

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// User types understood by the game.
const (
	UserTypeMSA    = "msa"
	UserTypeLegacy = "legacy"
)

// OfflineAccessToken is passed when playing without an account. The game
// requires the flag to be present.
const OfflineAccessToken = "0"

// ErrInvalid is returned for records that cannot be used for a launch.
var ErrInvalid = errors.New("❌ invalid credentials")

// Credentials is the read-only identity record for one launch.
type Credentials struct {
	PlayerName  string    `json:"playerName"`
	AccountID   string    `json:"accountId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	UserType    string    `json:"userType,omitempty"`
}

// Validate checks the fields the launch needs.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.PlayerName) == "" {
		return fmt.Errorf("%w: player name is empty", ErrInvalid)
	}
	if c.AccountID == "" {
		return fmt.Errorf("%w: account id is empty", ErrInvalid)
	}
	return nil
}

// Expired reports whether the token has a known expiry before now.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// Type returns the user type, defaulting to msa.
func (c Credentials) Type() string {
	if c.UserType == "" {
		return UserTypeMSA
	}
	return c.UserType
}

// Provider supplies credentials for a launch.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Static is a Provider returning a fixed record.
type Static Credentials

// Credentials implements Provider.
func (s Static) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// FileProvider reads a JSON record written by the account manager.
type FileProvider struct {
	Path string
}

// Credentials implements Provider.
func (f FileProvider) Credentials(context.Context) (Credentials, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	var c Credentials
	if err := sonic.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("%w: failed to decode %s: %v", ErrInvalid, f.Path, err)
	}
	return c, nil
}

// OfflineUUID derives the id the game itself assigns to an offline player:
// a version 3 UUID over "OfflinePlayer:<name>".
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id
}

// Offline returns credentials for playing without an account.
func Offline(name string) Credentials {
	return Credentials{
		PlayerName:  name,
		AccountID:   strings.ReplaceAll(OfflineUUID(name).String(), "-", ""),
		AccessToken: OfflineAccessToken,
		UserType:    UserTypeLegacy,
	}
}
