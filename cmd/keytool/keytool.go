package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/hash"
	"github.com/shandysiswandi/medicore/internal/pkg/rbac"
	"github.com/shandysiswandi/medicore/internal/pkg/uid"
	"golang.org/x/term"
)

var (
	errUsage            = errors.New("usage: keytool <gen-key|gen-secret|hash-password|admin-sql> [flags]")
	errPasswordMismatch = errors.New("passwords do not match")
	errPasswordLength   = errors.New("password must be 8 to 72 bytes")
)

// seams for tests
var (
	readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	randReader   = rand.Reader
	getenv       = os.Getenv
	now          = time.Now
)

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "gen-key":
		return genRandom(stdout, 32)
	case "gen-secret":
		return genRandom(stdout, 64)
	case "hash-password":
		pw, err := promptPassword(stderr)
		if err != nil {
			return err
		}
		hashed, err := hashPassword(pw)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, hashed)
		return err
	case "admin-sql":
		return adminSQL(args[1:], stdout, stderr)
	default:
		return errUsage
	}
}

func genRandom(w io.Writer, n int) error {
	buf := make([]byte, n)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return fmt.Errorf("read random: %w", err)
	}
	_, err := fmt.Fprintln(w, base64.StdEncoding.EncodeToString(buf))
	return err
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	first, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	if len(first) < 8 || len(first) > 72 {
		return "", errPasswordLength
	}

	return string(first), nil
}

func hashPassword(pw string) (string, error) {
	algorithm := getenv("MEDICORE_HASH_ALGORITHM")
	if algorithm == "" {
		algorithm = hash.AlgorithmBcrypt
	}

	cost, _ := strconv.Atoi(getenv("MEDICORE_HASH_BCRYPT_COST"))

	h, err := hash.NewPassword(algorithm, cost, getenv("MEDICORE_HASH_PEPPER"))
	if err != nil {
		return "", err
	}

	out, err := h.Hash(pw)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

func adminSQL(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("admin-sql", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "admin e-mail")
	firstName := fs.String("first-name", "Admin", "first name")
	lastName := fs.String("last-name", "MediCore", "last name")
	node := fs.Int64("node", 1023, "snowflake node; keep it apart from the API nodes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" || !strings.Contains(addr, "@") {
		return errors.New("-email is required")
	}

	pw, err := promptPassword(stderr)
	if err != nil {
		return err
	}
	hashed, err := hashPassword(pw)
	if err != nil {
		return err
	}

	snow, err := uid.NewSnowflake(*node)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout,
		"INSERT INTO users (id, email, first_name, last_name, role, status, password_hash, encryption_version, created_at, updated_at)\n"+
			"VALUES (%d, %s, %s, %s, %s, 1, %s, 1, %s, %s);\n",
		snow.Generate(),
		quote(addr),
		quote(*firstName),
		quote(*lastName),
		quote(rbac.RoleAdmin),
		quote(hashed),
		quote(now().UTC().Format(time.RFC3339)),
		quote(now().UTC().Format(time.RFC3339)),
	)
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
