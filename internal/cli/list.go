package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/vmelnikov/filedrop/internal/files"
)

func (a *App) List(ctx context.Context) error {
	if a.user == nil {
		fmt.Println("Log in to list your uploads.")
		return nil
	}

	recs, err := a.files.ListByOwner(ctx, a.user.ID)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(recs) == 0 {
		fmt.Println("No uploads yet.")
		return nil
	}
	for _, rec := range recs {
		kind := "full"
		if files.IsPlaceholder(rec.Content) {
			kind = "link only"
		} else if rec.IsTruncated {
			kind = "truncated"
		}
		fmt.Printf("%s  %s  %d bytes  %s\n", rec.ID, rec.Name, rec.ByteSize, kind)
	}
	return nil
}

func (a *App) Link(ctx context.Context, id string) error {
	rec, err := a.files.Lookup(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if rec == nil {
		fmt.Println("No file with id", id)
		return nil
	}
	fmt.Println(files.DownloadURL(a.config.Origin, rec.ID))
	return nil
}

func (a *App) Info(ctx context.Context, id string) error {
	rec, err := a.files.Lookup(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if rec == nil {
		fmt.Println("No file with id", id)
		return nil
	}

	fmt.Println("Name:    ", rec.Name)
	fmt.Println("Type:    ", rec.MIMEType)
	fmt.Println("Size:    ", rec.ByteSize, "bytes")
	fmt.Println("Uploaded:", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("Premium: ", rec.IsPremium)
	if rec.IsTruncated && !rec.IsPremium {
		fmt.Println("Note:    only a truncated copy is stored")
	}
	if rec.ErrorMessage != "" {
		fmt.Println("Warning: ", rec.ErrorMessage)
	}
	fmt.Println("Link:    ", files.DownloadURL(a.config.Origin, rec.ID))
	return nil
}
