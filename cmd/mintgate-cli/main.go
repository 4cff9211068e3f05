package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"mintgate/crypto"
	"mintgate/native/mint"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "keygen":
		err = runKeygen(os.Args[2:])
	case "allowlist-root":
		err = runAllowlistRoot(os.Args[2:])
	case "allowlist-proof":
		err = runAllowlistProof(os.Args[2:])
	case "cosign":
		err = runCosign(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: mintgate-cli <command> [options]

Commands:
  keygen          generate a key and print its address
  allowlist-root  compute the merkle root for an address file
  allowlist-proof compute the proof for one address in an address file
  cosign          sign a cosign digest with a keystore key`)
}

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "", "Keystore file to write (omit to print the raw key)")
	pass := fs.String("passphrase", "", "Keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	fmt.Println("Address:", key.PubKey().Address().String())
	if *out == "" {
		fmt.Println("PrivateKey:", hex.EncodeToString(key.Bytes()))
		return nil
	}
	if err := crypto.SaveToKeystore(*out, key, *pass); err != nil {
		return err
	}
	fmt.Println("Keystore:", *out)
	return nil
}

// readAddressFile parses one bech32 address per line, ignoring blanks and
// '#' comments.
func readAddressFile(path string) ([][20]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var addrs [][20]byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addr, err := crypto.DecodeAddress(line)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		addrs = append(addrs, addr.Bytes())
	}
	return addrs, scanner.Err()
}

func runAllowlistRoot(args []string) error {
	fs := flag.NewFlagSet("allowlist-root", flag.ExitOnError)
	file := fs.String("file", "", "Path to the address file, one bech32 address per line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	addrs, err := readAddressFile(*file)
	if err != nil {
		return err
	}
	tree := mint.NewAllowlistTree(addrs)
	root := tree.Root()
	fmt.Println("Root:", hex.EncodeToString(root[:]))
	return nil
}

func runAllowlistProof(args []string) error {
	fs := flag.NewFlagSet("allowlist-proof", flag.ExitOnError)
	file := fs.String("file", "", "Path to the address file")
	addrStr := fs.String("address", "", "Bech32 address to prove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *addrStr == "" {
		return fmt.Errorf("-file and -address are required")
	}
	addrs, err := readAddressFile(*file)
	if err != nil {
		return err
	}
	addr, err := crypto.DecodeAddress(*addrStr)
	if err != nil {
		return err
	}
	tree := mint.NewAllowlistTree(addrs)
	proof, ok := tree.Proof(addr.Bytes())
	if !ok {
		return fmt.Errorf("address %s is not in the allowlist", *addrStr)
	}
	for _, node := range proof {
		fmt.Println(hex.EncodeToString(node[:]))
	}
	return nil
}

func runCosign(args []string) error {
	fs := flag.NewFlagSet("cosign", flag.ExitOnError)
	keystorePath := fs.String("keystore", "", "Keystore file holding the cosigner key")
	pass := fs.String("passphrase", "", "Keystore passphrase")
	digestHex := fs.String("digest", "", "Hex cosign digest from mint_cosignDigest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keystorePath == "" || *digestHex == "" {
		return fmt.Errorf("-keystore and -digest are required")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(*digestHex), "0x"))
	if err != nil || len(raw) != 32 {
		return fmt.Errorf("digest must be 32 hex bytes")
	}
	var digest [32]byte
	copy(digest[:], raw)
	key, err := crypto.LoadFromKeystore(*keystorePath, *pass)
	if err != nil {
		return err
	}
	sig, err := key.Sign(mint.SignedCosignHash(digest))
	if err != nil {
		return err
	}
	fmt.Println("Signature:", hex.EncodeToString(sig))
	return nil
}
