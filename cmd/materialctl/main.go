// materialctl is a small command line client for the material API. It drives
// the same upload chain the web clients use: grant, direct PUT to storage,
// completion, then material link.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"materialapi/internal/model"
	"materialapi/internal/uploader"
)

func main() {
	baseURL := flag.String("base", envOr("MATERIAL_API_URL", "http://localhost:8080"), "material API base URL")
	userID := flag.String("user", os.Getenv("MATERIAL_API_USER"), "acting user id")
	cookie := flag.String("cookie", os.Getenv("MATERIAL_API_COOKIE"), "session cookie value")
	ownerID := flag.String("owner", "", "owner id the files belong to")
	ownerType := flag.String("owner-type", string(model.OwnerInstructor), "owner type: INSTRUCTOR, STUDENT or USER")
	entity := flag.String("entity", "", "target entity as kind/id, e.g. assignment/a-42")
	concurrency := flag.Int("concurrency", 4, "max simultaneous uploads")
	outDir := flag.String("out", ".", "directory downloads are written to")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	session := uploader.Session{UserID: *userID}
	if *cookie != "" {
		session.Cookie = &http.Cookie{Name: "sid", Value: *cookie}
	}
	client := uploader.New(*baseURL, session, uploader.WithConcurrency(*concurrency))

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "upload":
		err = runUpload(ctx, client, *entity, *ownerID, *ownerType, args)
	case "download":
		err = runDownload(ctx, client, *outDir, args)
	case "list":
		err = runList(ctx, client, *entity, *ownerID, *ownerType)
	case "delete":
		err = runDelete(ctx, client, *entity, *ownerID, *ownerType, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: materialctl [flags] <command>

commands:
  upload <file>...        upload files and attach them to -entity
  download <key> [name]   download the binary stored under key
  list                    list the materials attached to -entity
  delete <material-id>    detach a material from -entity`)
	flag.PrintDefaults()
}

func parseTarget(entity, ownerID, ownerType string) (uploader.Target, error) {
	kindStr, entityID, ok := strings.Cut(entity, "/")
	if !ok || entityID == "" {
		return uploader.Target{}, fmt.Errorf("-entity must be kind/id, got %q", entity)
	}
	kind, err := model.ParseEntityKind(kindStr)
	if err != nil {
		return uploader.Target{}, err
	}
	return uploader.Target{
		OwnerID:    ownerID,
		OwnerType:  model.OwnerType(ownerType),
		EntityKind: kind,
		EntityID:   entityID,
	}, nil
}

func runUpload(ctx context.Context, client *uploader.Client, entity, ownerID, ownerType string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("upload: at least one file is required")
	}
	target, err := parseTarget(entity, ownerID, ownerType)
	if err != nil {
		return err
	}

	files := make([]uploader.File, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, uploader.File{
			Name:     filepath.Base(p),
			MIMEType: mime.TypeByExtension(filepath.Ext(p)),
			Content:  content,
		})
	}

	results := client.UploadAll(ctx, target, files)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("%s\tFAILED at %s: %v\n", res.Name, res.Stage, res.Err)
			continue
		}
		fmt.Printf("%s\t%s\tmaterial=%s key=%s\n", res.Name, res.State, res.Material.ID, res.Material.FileKey)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

func runDownload(ctx context.Context, client *uploader.Client, dir string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("download: storage key is required")
	}
	key := args[0]
	name := filepath.Base(key)
	if len(args) > 1 {
		name = args[1]
	}
	path, err := client.Download(ctx, key, name, dir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runList(ctx context.Context, client *uploader.Client, entity, ownerID, ownerType string) error {
	target, err := parseTarget(entity, ownerID, ownerType)
	if err != nil {
		return err
	}
	for _, m := range client.ListMaterials(ctx, target) {
		fmt.Printf("%s\t%s\t%d bytes\tkey=%s\n", m.ID, m.FileName, m.FileSize, m.FileKey)
	}
	return nil
}

func runDelete(ctx context.Context, client *uploader.Client, entity, ownerID, ownerType string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("delete: material id is required")
	}
	target, err := parseTarget(entity, ownerID, ownerType)
	if err != nil {
		return err
	}
	return client.DeleteMaterial(ctx, target, args[0])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
