// Command server is the nobetci process entrypoint: wires config, the
// logger, the S3-backed uploader, and the chi router together and serves
// the four HTTP endpoints.
package main

import (
	"context"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ayhanuzun/nobetci/applog"
	"github.com/ayhanuzun/nobetci/config"
	"github.com/ayhanuzun/nobetci/httpapi"
	"github.com/ayhanuzun/nobetci/integrations/objectstore"
)

func main() {
	cfg := config.Load()
	log := applog.New()
	defer log.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.ObjectStoreRegion))
	if err != nil {
		log.Fatalw("failed to load AWS config", "error", err)
	}

	server := &httpapi.Server{
		Log:    log,
		Config: cfg,
		Uploader: objectstore.S3Uploader{
			Client: s3.NewFromConfig(awsCfg),
			Bucket: cfg.ObjectStoreBucket,
		},
	}

	log.Infow("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, server.Router()); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}
