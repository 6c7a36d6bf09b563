package gcs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"reflect"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/bobg/txlog"
	"github.com/bobg/txlog/testutil"
)

func TestEachHexPrefix(t *testing.T) {
	want := []string{
		"e67b", "e67c", "e67d", "e67e", "e67f",
		"e68", "e69", "e6a", "e6b", "e6c", "e6d", "e6e", "e6f",
		"e7", "e8", "e9", "ea", "eb", "ec", "ed", "ee", "ef",
		"f",
	}
	var got []string
	err := eachHexPrefix("e67a", false, func(prefix string) error {
		got = append(got, prefix)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestObjName(t *testing.T) {
	c, err := txlog.Sum([]byte("hello"), txlog.Raw)
	if err != nil {
		t.Fatal(err)
	}
	name := blockObjName(c)
	if name[:10] != "b:01551220" {
		t.Errorf("got object name %s, want prefix b:01551220", name)
	}
	got, err := cidFromBlockObjName(name)
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Errorf("got %s, want %s", got, c)
	}
	if _, err := cidFromBlockObjName("b:zz"); err == nil {
		t.Error("got no error parsing a malformed object name")
	}
}

const (
	credsVar = "TXLOG_GCS_TESTING_CREDS"
	projVar  = "TXLOG_GCS_TESTING_PROJECT"
)

func TestStore(t *testing.T) {
	var (
		creds     = os.Getenv(credsVar)
		projectID = os.Getenv(projVar)
	)
	if creds == "" || projectID == "" {
		t.Skipf("to run TestStore, set %s to the name of a credentials file and %s to a project ID", credsVar, projVar)
	}

	var r [30]byte
	_, err := rand.Read(r[:])
	if err != nil {
		t.Fatal(err)
	}
	bucketName := hex.EncodeToString(r[:])

	ctx := context.Background()

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(creds))
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("creating bucket %s in project %s", bucketName, projectID)

	bucket := client.Bucket(bucketName)
	err = bucket.Create(ctx, projectID, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer bucket.Delete(ctx)

	testutil.ReadWrite(ctx, t, New(bucket), testutil.Data(1<<20))
}
