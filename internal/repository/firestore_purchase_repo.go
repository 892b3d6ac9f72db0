package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hitoshi/courseaccess/internal/model"
)

// DefaultPurchasesCollection は購入レコードのデフォルトのコレクション名。
const DefaultPurchasesCollection = "purchases"

// Firestore上のフィールド名
const (
	fieldUserID       = "userId"
	fieldSessionID    = "sessionId"
	fieldCourseAccess = "courseAccess"
	fieldTimestamp    = "timestamp"
)

// purchaseDoc はFirestoreドキュメントの読み出し用の形。
type purchaseDoc struct {
	UserID       string    `firestore:"userId"`
	SessionID    string    `firestore:"sessionId"`
	CourseAccess bool      `firestore:"courseAccess"`
	Timestamp    time.Time `firestore:"timestamp"`
}

// FirestorePurchaseRepo はCloud Firestoreを使用した購入レコードリポジトリ。
type FirestorePurchaseRepo struct {
	client     *firestore.Client
	collection string
}

// NewFirestorePurchaseRepo はFirestorePurchaseRepoを生成する。
// collectionが空の場合はDefaultPurchasesCollectionを使う。
func NewFirestorePurchaseRepo(client *firestore.Client, collection string) *FirestorePurchaseRepo {
	if collection == "" {
		collection = DefaultPurchasesCollection
	}
	return &FirestorePurchaseRepo{client: client, collection: collection}
}

// Upsert はセッションIDをドキュメントIDとして購入レコードをsetする。
func (r *FirestorePurchaseRepo) Upsert(ctx context.Context, purchase *model.Purchase) error {
	_, err := r.client.Collection(r.collection).Doc(purchase.SessionID).Set(ctx, purchaseDocument(purchase))
	if err != nil {
		return fmt.Errorf("failed to upsert purchase: %w", err)
	}
	return nil
}

// HasAccess はuserIdとcourseAccessの等価フィルタで1件だけ取得し、存在有無を返す。
func (r *FirestorePurchaseRepo) HasAccess(ctx context.Context, userID string) (bool, error) {
	iter := r.client.Collection(r.collection).
		Where(fieldUserID, "==", userID).
		Where(fieldCourseAccess, "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query purchases: %w", err)
	}
	return true, nil
}

// FindBySessionID はセッションIDのドキュメントを取得する。見つからない場合はnilを返す。
// PurchaseRepositoryには含まれない運用・検証用の読み出し。
func (r *FirestorePurchaseRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Purchase, error) {
	snap, err := r.client.Collection(r.collection).Doc(sessionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	var doc purchaseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode purchase: %w", err)
	}

	return &model.Purchase{
		SessionID:    doc.SessionID,
		UserID:       doc.UserID,
		CourseAccess: doc.CourseAccess,
		CreatedAt:    doc.Timestamp,
	}, nil
}

// purchaseDocument は書き込み用のドキュメントを組み立てる。
// ユーザーIDが空の場合はnullを書き込み、作成日時はサーバータイムスタンプとする。
func purchaseDocument(purchase *model.Purchase) map[string]interface{} {
	var userID interface{}
	if purchase.UserID != "" {
		userID = purchase.UserID
	}

	return map[string]interface{}{
		fieldUserID:       userID,
		fieldSessionID:    purchase.SessionID,
		fieldCourseAccess: purchase.CourseAccess,
		fieldTimestamp:    firestore.ServerTimestamp,
	}
}

// compile-time interface check
var _ PurchaseRepository = (*FirestorePurchaseRepo)(nil)
