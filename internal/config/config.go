// Package config assembles application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ic-ufrj/alumnic/internal/api"
	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/portal"
)

// Config holds every tunable of the application. Zero values are filled
// from the package defaults, so only the deployment-specific settings
// (LDAP URL and bind credentials, typically) need to be present in the
// environment.
type Config struct {
	Server    api.ServerConfig
	Directory directory.Config
	Portal    portal.Config
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:    api.DefaultServerConfig(),
		Directory: directory.DefaultConfig(),
		Portal:    portal.DefaultConfig(),
	}
}

// FromEnv builds a Config from environment variables, starting from the
// defaults. LDAP bind settings are required; everything else is optional.
func FromEnv() (Config, error) {
	cfg := Default()

	var err error
	if cfg.Server.Port, err = intEnv("ALUMNIC_PORT", cfg.Server.Port); err != nil {
		return Config{}, err
	}
	cfg.Server.Host = strEnv("ALUMNIC_HOST", cfg.Server.Host)

	cfg.Directory.URL = os.Getenv("ALUMNIC_LDAP_URL")
	if cfg.Directory.URL == "" {
		return Config{}, fmt.Errorf("ALUMNIC_LDAP_URL is required")
	}
	cfg.Directory.BindDN = os.Getenv("ALUMNIC_LDAP_BIND_DN")
	if cfg.Directory.BindDN == "" {
		return Config{}, fmt.Errorf("ALUMNIC_LDAP_BIND_DN is required")
	}
	cfg.Directory.BindPassword = os.Getenv("ALUMNIC_LDAP_BIND_PASSWORD")
	if cfg.Directory.BindPassword == "" {
		return Config{}, fmt.Errorf("ALUMNIC_LDAP_BIND_PASSWORD is required")
	}
	cfg.Directory.BaseDN = strEnv("ALUMNIC_LDAP_BASE_DN", cfg.Directory.BaseDN)
	cfg.Directory.StudentsOU = strEnv("ALUMNIC_LDAP_STUDENTS_OU", cfg.Directory.StudentsOU)
	if cfg.Directory.Timeout, err = durEnv("ALUMNIC_LDAP_TIMEOUT", cfg.Directory.Timeout); err != nil {
		return Config{}, err
	}

	d := &cfg.Directory.Defaults
	d.SIDPrefix = strEnv("ALUMNIC_SAMBA_SID_PREFIX", d.SIDPrefix)
	d.PrimaryGroupSID = strEnv("ALUMNIC_SAMBA_GROUP_SID", d.PrimaryGroupSID)
	d.AcctFlags = strEnv("ALUMNIC_SAMBA_ACCT_FLAGS", d.AcctFlags)
	d.LMPassword = strEnv("ALUMNIC_SAMBA_LM_PASSWORD", d.LMPassword)
	d.PasswordHistory = strEnv("ALUMNIC_SAMBA_PASSWORD_HISTORY", d.PasswordHistory)
	d.GIDNumber = strEnv("ALUMNIC_GID_NUMBER", d.GIDNumber)
	d.LoginShell = strEnv("ALUMNIC_LOGIN_SHELL", d.LoginShell)
	d.MailDomain = strEnv("ALUMNIC_MAIL_DOMAIN", d.MailDomain)
	d.HomePrefix = strEnv("ALUMNIC_HOME_PREFIX", d.HomePrefix)
	d.Quota = strEnv("ALUMNIC_QUOTA", d.Quota)

	cfg.Portal.FormURL = strEnv("ALUMNIC_PORTAL_FORM_URL", cfg.Portal.FormURL)
	cfg.Portal.SubmitURL = strEnv("ALUMNIC_PORTAL_SUBMIT_URL", cfg.Portal.SubmitURL)
	cfg.Portal.TargetProgram = strEnv("ALUMNIC_TARGET_PROGRAM", cfg.Portal.TargetProgram)
	if cfg.Portal.Timeout, err = durEnv("ALUMNIC_PORTAL_TIMEOUT", cfg.Portal.Timeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func strEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
