package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/rs/zerolog"
)

// Settings carry the storage endpoint and one of the two supported
// credential pairs: an account name/key, or a service principal.
type Settings struct {
	ServiceURL   string
	AccountName  string
	AccountKey   string
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Uploader delivers finished artifacts into a blob container.
type Uploader struct {
	client *azblob.Client
}

func NewUploader(settings Settings) (*Uploader, error) {
	if settings.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(settings.AccountName, settings.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to build shared key credential: %w", err)
		}
		client, err := azblob.NewClientWithSharedKeyCredential(settings.ServiceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return &Uploader{client: client}, nil
	}

	var cred azcore.TokenCredential
	cred, err := azidentity.NewClientSecretCredential(settings.TenantID, settings.ClientID, settings.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build service principal credential: %w", err)
	}
	client, err := azblob.NewClient(settings.ServiceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Uploader{client: client}, nil
}

// Upload pushes the file at localPath into the named container. The blob
// takes the file's base name, so re-delivering the same week's artifact
// overwrites the previous upload.
func (u *Uploader) Upload(ctx context.Context, localPath, container string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close artifact file")
		}
	}(f)

	blob := filepath.Base(localPath)
	if _, err := u.client.UploadFile(ctx, container, blob, f, nil); err != nil {
		return fmt.Errorf("failed to upload %s to container %s: %w", blob, container, err)
	}
	return nil
}
