package main

import (
	"bufio"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"devscope/pkg/config"
	"devscope/pkg/solana"
)

// Encrypts a trading key into the keystore file the api loads at startup.
// The key is read from KEYSTORE_PRIVATE_KEY, or from the first line of stdin.
func main() {
	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.LoadAppConfig()

	if cfg.KeystorePath == "" || cfg.KeystorePassword == "" {
		log.Fatal("KEYSTORE_PATH and KEYSTORE_PASSWORD must be set")
	}

	key := strings.TrimSpace(os.Getenv("KEYSTORE_PRIVATE_KEY"))
	if key == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.WithError(err).Fatal("Failed to read private key from stdin")
		}
		key = strings.TrimSpace(line)
	}

	account, err := solana.ParsePrivateKey(key)
	if err != nil {
		log.WithError(err).Fatal("Invalid private key")
	}
	if err := solana.SaveKeystore(cfg.KeystorePath, account, cfg.KeystorePassword); err != nil {
		log.WithError(err).Fatal("Failed to write keystore")
	}

	log.WithFields(log.Fields{
		"path":    cfg.KeystorePath,
		"address": account.PublicKey.ToBase58(),
	}).Info("Keystore written")
}
