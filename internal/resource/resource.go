// Package resource は非同期フェッチのライフサイクル状態を管理する
// 汎用プリミティブを提供する。
//
// 1回の実行サイクルはpending（取得中）からresolved（成功）または
// rejected（失敗）のいずれかの終端状態に遷移する。再実行は常にpendingから
// やり直し、以前のデータ/エラーは破棄される。
//
// 実行サイクルには世代番号が付与され、現在の世代に一致する結果だけが
// 可視状態に反映される（last requested wins）。進行中のサイクルの
// キャンセルは行わないが、追い越された古い結果が新しい結果を上書きする
// ことはない。
package resource

import (
	"context"
	"errors"
	"sync"
)

// fallbackErrorMessage はエラー値を持たない失敗（プロデューサのpanic等）を
// 正規化する際の固定メッセージ。エラーは常にこのメッセージを持つerror値に
// 変換されるため、Errフィールドは「error型かnil」のどちらかになる。
const fallbackErrorMessage = "an error occurred"

// Producer は値を非同期に生成する関数。
type Producer[T any] func(ctx context.Context) (T, error)

// State はリソースの可視状態のスナップショット。
// Loadingがfalseになった後はDataとErrのちょうど一方が非nilとなる。
// 両方nilなのは最初のサイクルが終わる前だけ。
type State[T any] struct {
	Data    *T
	Loading bool
	Err     error
}

// Resource は1つのプロデューサに対するフェッチサイクルの状態を保持する。
type Resource[T any] struct {
	producer Producer[T]

	mu         sync.Mutex
	generation uint64
	data       *T
	err        error
	loading    bool
	done       chan struct{} // 現在の世代の完了通知。完了時にcloseされる。
}

// New はResourceを生成し、最初のフェッチサイクルを開始する。
func New[T any](ctx context.Context, producer Producer[T]) *Resource[T] {
	r := &Resource[T]{producer: producer}
	r.start(ctx)
	return r
}

// Refetch は新しいフェッチサイクルを開始する。
// 状態はpendingに戻り、以前のデータ/エラーは破棄される。
// 進行中のサイクルはキャンセルされないが、その結果は世代番号の不一致により
// 可視状態には反映されない。
func (r *Resource[T]) Refetch(ctx context.Context) {
	r.start(ctx)
}

// Snapshot は現在の可視状態を返す。
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State[T]{
		Data:    r.data,
		Loading: r.loading,
		Err:     r.err,
	}
}

// Wait は現在の世代のサイクルが終端状態に達するまでブロックし、
// その時点の状態を返す。待機中にRefetchされた場合は新しい世代を待ち直す。
// ctxがキャンセルされた場合はその時点の状態を返す。
func (r *Resource[T]) Wait(ctx context.Context) State[T] {
	for {
		r.mu.Lock()
		if !r.loading {
			st := State[T]{Data: r.data, Loading: r.loading, Err: r.err}
			r.mu.Unlock()
			return st
		}
		done := r.done
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return r.Snapshot()
		case <-done:
		}
	}
}

// start は新しい世代のサイクルを開始する。
func (r *Resource[T]) start(ctx context.Context) {
	r.mu.Lock()
	if r.loading && r.done != nil {
		// 進行中のサイクルを破棄する。待機側は起こされて新しい世代に乗り換える。
		close(r.done)
	}
	r.generation++
	gen := r.generation
	r.loading = true
	r.data = nil
	r.err = nil
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.run(ctx, gen, done)
}

// run は1サイクルを実行し、世代が一致する場合のみ結果を反映する。
func (r *Resource[T]) run(ctx context.Context, gen uint64, done chan struct{}) {
	value, err := r.invoke(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	// 追い越された古い世代の結果は捨てる（last requested wins）
	if gen != r.generation {
		return
	}

	r.loading = false
	if err != nil {
		r.err = err
	} else {
		r.data = &value
	}
	close(done)
}

// invoke はプロデューサを実行する。panicはrecoverし、
// 固定メッセージのerror値に正規化する。
func (r *Resource[T]) invoke(ctx context.Context) (value T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New(fallbackErrorMessage)
		}
	}()
	return r.producer(ctx)
}
