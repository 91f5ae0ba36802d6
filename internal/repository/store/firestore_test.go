package store

import (
	"context"
	"net"
	"strings"
	"testing"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const testProject = "famcal"

// fakeFirestore serves BatchGetDocuments from a fixed document table.
type fakeFirestore struct {
	firestorepb.UnimplementedFirestoreServer

	docs map[string]map[string]*firestorepb.Value
}

func (f *fakeFirestore) BatchGetDocuments(
	req *firestorepb.BatchGetDocumentsRequest,
	stream firestorepb.Firestore_BatchGetDocumentsServer,
) error {
	now := timestamppb.Now()

	for _, name := range req.GetDocuments() {
		resp := &firestorepb.BatchGetDocumentsResponse{ReadTime: now}

		path := name[strings.Index(name, "/documents/")+len("/documents/"):]
		if fields, ok := f.docs[path]; ok {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Found{Found: &firestorepb.Document{
				Name:       name,
				Fields:     fields,
				CreateTime: now,
				UpdateTime: now,
			}}
		} else {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Missing{Missing: name}
		}

		if err := stream.Send(resp); err != nil {
			return err
		}
	}

	return nil
}

func stringValue(s string) *firestorepb.Value {
	return &firestorepb.Value{ValueType: &firestorepb.Value_StringValue{StringValue: s}}
}

// newTestFirestore connects a FirestoreStore to an in-process server.
func newTestFirestore(t *testing.T, docs map[string]map[string]*firestorepb.Value) *FirestoreStore {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	firestorepb.RegisterFirestoreServer(srv, &fakeFirestore{docs: docs})

	go func() { _ = srv.Serve(lis) }()

	t.Cleanup(srv.Stop)

	client, err := firestore.NewClient(context.Background(), testProject,
		option.WithEndpoint(lis.Addr().String()),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)

	s := &FirestoreStore{client: client}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// TestFirestoreStore_Get maps missing documents to ErrNotFound and wraps decode failures.
func TestFirestoreStore_Get(t *testing.T) {
	t.Parallel()

	s := newTestFirestore(t, map[string]map[string]*firestorepb.Value{
		"users/U1": {"display_name": stringValue("Anna")},
		"users/U2": {"display_name": {ValueType: &firestorepb.Value_IntegerValue{IntegerValue: 7}}},
	})

	user, err := s.GetUser(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, "Anna", user.DisplayName)

	_, err = s.GetUser(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUser(context.Background(), "U2")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), `get user "U2": decode document: `)
}
