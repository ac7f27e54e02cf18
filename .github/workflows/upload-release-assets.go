package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// platforms must match the builds of build.go
var platforms = []string{
	"darwin-arm64",
	"linux-amd64",
	"linux-arm64",
	"windows-amd64",
}

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("upload-release-assets", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var (
		releaseId  string
		repository string
		dryRun     bool
	)
	flags.StringVar(&releaseId, "release-id", "", "ID of the Github release")
	flags.StringVar(&repository, "repository", "gclaussn/go-camunda", "Github repository, the release belongs to")
	flags.BoolVar(&dryRun, "dry-run", false, "Only verify the release assets")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if releaseId == "" {
		log.Fatal("please provide a release ID")
	}

	assets := releaseAssets()

	var missing int
	for _, asset := range assets {
		if _, err := os.Stat(filepath.Join("./build", asset.name)); err != nil {
			log.Printf("release asset %s is missing: %v", asset.name, err)
			missing++
		}
	}
	if missing != 0 {
		log.Fatalf("%d of %d release assets are missing, run build.go first", missing, len(assets))
	}

	if dryRun {
		for _, asset := range assets {
			log.Printf("would upload %s (%s)", asset.name, asset.contentType)
		}
		return
	}

	githubToken, ok := os.LookupEnv("GITHUB_TOKEN")
	if !ok {
		log.Fatal("please set environment variable GITHUB_TOKEN")
	}

	for _, asset := range assets {
		uploadReleaseAsset(githubToken, repository, releaseId, asset)
	}
}

type releaseAsset struct {
	name        string
	contentType string
}

// releaseAssets returns the archive and checksum of each platform's camunda binary.
func releaseAssets() []releaseAsset {
	assets := make([]releaseAsset, 0, len(platforms)*2)
	for _, platform := range platforms {
		assets = append(assets,
			releaseAsset{name: fmt.Sprintf("camunda-%s.tar.gz", platform), contentType: "application/gzip"},
			releaseAsset{name: fmt.Sprintf("camunda-%s.sha256", platform), contentType: "text/plain"},
		)
	}
	return assets
}

func uploadReleaseAsset(githubToken string, repository string, releaseId string, asset releaseAsset) {
	cmd := exec.Command(
		"curl",
		"-L",
		"--fail-with-body",
		"-X", "POST",
		"-H", "Accept: application/vnd.github+json",
		"-H", "Authorization: Bearer "+githubToken,
		"-H", "X-GitHub-Api-Version: 2022-11-28",
		"-H", "Content-Type: "+asset.contentType,
		fmt.Sprintf("https://uploads.github.com/repos/%s/releases/%s/assets?name=%s", repository, releaseId, asset.name),
		"--data-binary", "@./build/"+asset.name,
	)

	out, err := cmd.Output()
	if len(out) != 0 {
		log.Println(string(out))
	}
	if err != nil {
		log.Fatalf("failed to upload release asset %s: %v", asset.name, err)
	}
}
