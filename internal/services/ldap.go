package services

import (
	"crypto/tls"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/huangang/tasktracker/internal/config"
)

// DirectoryAuthenticator verifies credentials against an external directory.
type DirectoryAuthenticator interface {
	Enabled() bool
	Authenticate(username, password string) (*LDAPUser, error)
}

type LDAPUser struct {
	DN       string
	Username string
	Email    string
	Name     string
}

type LDAPService struct {
	config *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	return &LDAPService{config: cfg}
}

func (s *LDAPService) Enabled() bool {
	return s.config != nil && s.config.Enabled
}

// Authenticate looks the user up with the service account (when configured)
// and then binds as that user to verify the password.
func (s *LDAPService) Authenticate(username, password string) (*LDAPUser, error) {
	if !s.Enabled() {
		return nil, ErrLDAPDisabled
	}
	// An empty password would turn the user bind into an unauthenticated bind.
	if password == "" {
		return nil, fmt.Errorf("empty password")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var conn *ldap.Conn
	var err error
	if s.config.UseSSL {
		conn, err = ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: s.config.Host}))
	} else {
		conn, err = ldap.DialURL("ldap://" + addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if s.config.BindDN != "" {
		if err := conn.Bind(s.config.BindDN, s.config.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	searchRequest := ldap.NewSearchRequest(
		s.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		buildUserFilter(s.config.UserFilter, username),
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}
	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("user not found in LDAP")
	}
	if len(result.Entries) > 1 {
		return nil, fmt.Errorf("multiple users found in LDAP")
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return entryToUser(entry), nil
}

func buildUserFilter(pattern, username string) string {
	if pattern == "" {
		pattern = "(uid=%s)"
	}
	return fmt.Sprintf(pattern, ldap.EscapeFilter(username))
}

func entryToUser(entry *ldap.Entry) *LDAPUser {
	user := &LDAPUser{
		DN:       entry.DN,
		Username: entry.GetAttributeValue("uid"),
		Email:    entry.GetAttributeValue("mail"),
		Name:     entry.GetAttributeValue("cn"),
	}
	// Active Directory
	if user.Username == "" {
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}
	if user.Name == "" {
		user.Name = user.Username
	}
	return user
}
