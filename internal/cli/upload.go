package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/files"
)

// openSource builds a files.Source for a local path. Swapped in tests.
var openSource = func(path string) (files.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return files.Source{}, err
	}
	if info.IsDir() {
		return files.Source{}, fmt.Errorf("%s is a directory", path)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return files.Source{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Upload prompts for a local path, stores the file and prints its link.
//
// Files over the free limit need a coin. The coin is debited up front; if the
// balance is empty (or nobody is logged in) the user may instead keep a free
// truncated copy. A debited coin is returned when the store write fails.
func (a *App) Upload(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Enter file path", os.Stdout)
	if err != nil {
		return err
	}

	src, err := openSource(path)
	if err != nil {
		log.Printf("Cannot read %s: %s", path, err.Error())
		return err
	}

	opts := files.UploadOptions{}
	if a.user != nil {
		opts.OwnerID = a.user.ID
	}

	debited := false
	if files.Premium(src.Size) {
		debited, opts.ForceFree, err = a.payForPremium(ctx, src.Size)
		if err != nil {
			return err
		}
		if !debited && !opts.ForceFree {
			fmt.Println("Upload canceled.")
			return nil
		}
	}

	rec, err := a.files.Upload(ctx, src, opts)
	if err != nil {
		if debited {
			if _, creditErr := a.ledger.Credit(ctx, a.user.ID, 1); creditErr != nil {
				log.Printf("Could not return the coin: %s", creditErr.Error())
			}
		}
		switch {
		case errors.Is(err, common.ErrFileTooLarge):
			log.Printf("File is larger than the %d GiB limit", files.MaxUploadSize>>30)
		case errors.Is(err, common.ErrReadFailure):
			log.Printf("Could not read the file: %s", err.Error())
		default:
			log.Printf("Upload failed: %s", err.Error())
		}
		return err
	}

	if rec.ErrorMessage != "" {
		fmt.Println("Warning:", rec.ErrorMessage)
	}
	fmt.Println("Share this link:", files.DownloadURL(a.config.Origin, rec.ID))
	return nil
}

// payForPremium settles the coin for an over-limit upload. It returns whether
// a coin was debited and whether the upload should fall back to a free
// truncated copy.
func (a *App) payForPremium(ctx context.Context, size int64) (debited bool, forceFree bool, err error) {
	if a.user == nil {
		fmt.Printf("Files over %d MiB need a coin, and you are not logged in.\n", files.FreeLimit>>20)
		ok, err := confirm(a.reader, "Keep a free truncated copy instead?", os.Stdout)
		return false, ok, err
	}

	if _, err := a.ledger.Debit(ctx, a.user.ID); err != nil {
		if !errors.Is(err, common.ErrInsufficientBalance) {
			return false, false, err
		}
		fmt.Printf("Files over %d MiB cost one coin and your balance is empty (see 'buy').\n", files.FreeLimit>>20)
		ok, err := confirm(a.reader, "Keep a free truncated copy instead?", os.Stdout)
		return false, ok, err
	}

	fmt.Printf("One coin spent for a %d MiB upload.\n", size>>20)
	return true, false, nil
}
