package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisnitish/gochan/asyncpool"
)

// S1 — unbuffered rendezvous: a concurrent send and receive meet and
// the receiver gets the sent value.
func Test_Unbuffered_Rendezvous(t *testing.T) {
	ch := New[int](0)

	var received int
	var recvDone, sendDone sync.WaitGroup
	recvDone.Add(1)
	sendDone.Add(1)

	go func() {
		defer recvDone.Done()
		v, ok := ch.Receive()
		require.True(t, ok)
		received = v
	}()

	go func() {
		defer sendDone.Done()
		err := ch.Send(100)
		require.NoError(t, err)
	}()

	recvDone.Wait()
	sendDone.Wait()

	assert.Equal(t, 100, received)
}

// S2 — buffered fill: capacity 3, three sends succeed immediately, a
// fourth blocks until a receive makes room.
func Test_Buffered_Fill(t *testing.T) {
	ch := New[int](3)

	require.NoError(t, ch.Send(1))
	require.NoError(t, ch.Send(2))
	require.NoError(t, ch.Send(3))

	sendReturned := make(chan struct{})
	go func() {
		require.NoError(t, ch.Send(4))
		close(sendReturned)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-sendReturned:
		t.Fatal("send(4) returned before any receive freed capacity")
	default:
	}

	var got []int
	for i := 0; i < 4; i++ {
		v, ok := ch.Receive()
		require.True(t, ok)
		got = append(got, v)
	}

	<-sendReturned
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

// S3 — close-drain: a concurrent close racing a blocked third send
// leaves the channel in one of two conforming end states.
func Test_Buffered_CloseDrain(t *testing.T) {
	ch := New[int](2)

	require.NoError(t, ch.Send(1))
	require.NoError(t, ch.Send(2))

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- ch.Send(3)
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Close()

	v1, ok1 := ch.Receive()
	v2, ok2 := ch.Receive()

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)

	err := <-sendErr
	if err == nil {
		v3, ok3 := ch.Receive()
		require.True(t, ok3)
		assert.Equal(t, 3, v3)
	} else {
		assert.ErrorIs(t, err, ErrClosedSend)
	}

	_, ok := ch.Receive()
	assert.False(t, ok)
}

// S4 — try operations on a buffered capacity-2 channel.
func Test_TryOperations(t *testing.T) {
	ch := New[int](2)

	assert.True(t, ch.TrySend(1))
	assert.True(t, ch.TrySend(2))
	assert.False(t, ch.TrySend(3))
	assert.False(t, ch.TrySend(4))

	v, ok := ch.TryReceive()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = ch.TryReceive()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = ch.TryReceive()
	assert.False(t, ok)

	_, ok = ch.TryReceive()
	assert.False(t, ok)
}

// try_send on an unbuffered channel only succeeds when a receiver is
// already parked; a blocking send, unlike try_send, does not require
// one.
func Test_TrySend_Unbuffered_RequiresParkedReceiver(t *testing.T) {
	ch := New[int](0)

	assert.False(t, ch.TrySend(1))

	recvDone := make(chan struct{})
	var got int
	go func() {
		v, ok := ch.Receive()
		if ok {
			got = v
		}
		close(recvDone)
	}()

	require.Eventually(t, func() bool {
		return ch.TrySend(2)
	}, time.Second, time.Millisecond)

	<-recvDone
	assert.Equal(t, 2, got)
}

// S5 — async send after close surfaces ErrClosedSend through Await.
func Test_AsyncSend_AfterClose(t *testing.T) {
	ch := New[int](1)
	ch.Close()

	f := ch.AsyncSend(nil, 10)

	_, err := f.Await(context.Background())
	assert.True(t, errors.Is(err, ErrClosedSend))
}

func Test_AsyncReceive_Basic(t *testing.T) {
	ch := New[int](1)
	require.NoError(t, ch.Send(42))

	f := ch.AsyncReceive(nil)
	got, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, got.OK)
	assert.Equal(t, 42, got.Value)
}

func Test_AsyncReceive_ClosedDrainedReturnsNotOK(t *testing.T) {
	pool := asyncpool.New(2, 4)
	defer pool.Stop()

	ch := New[int](1)
	ch.Close()

	f := ch.AsyncReceive(pool)
	got, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.False(t, got.OK)
}

// Close does not discard a pending unbuffered slot: a receive on a
// closed unbuffered channel whose slot is still full still returns
// that value.
func Test_Unbuffered_CloseDoesNotDiscardPendingSlot(t *testing.T) {
	ch := New[int](0)

	sendDone := make(chan struct{})
	go func() {
		// No parked receiver; this send publishes into the slot and
		// then waits for consumption or close.
		_ = ch.Send(7)
		close(sendDone)
	}()

	require.Eventually(t, func() bool {
		return ch.IsReceiveReady()
	}, time.Second, time.Millisecond)

	ch.Close()
	<-sendDone

	v, ok := ch.Receive()
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = ch.Receive()
	assert.False(t, ok)
}

func Test_Close_Idempotent(t *testing.T) {
	ch := New[int](1)
	ch.Close()
	ch.Close()
	assert.True(t, ch.IsClosed())
}

func Test_Close_Monotonic(t *testing.T) {
	ch := New[int](1)
	assert.False(t, ch.IsClosed())
	ch.Close()
	assert.True(t, ch.IsClosed())
	assert.True(t, ch.IsClosed())
}

func Test_Send_AfterClose_Buffered(t *testing.T) {
	ch := New[int](2)
	ch.Close()
	err := ch.Send(1)
	assert.ErrorIs(t, err, ErrClosedSend)
}

func Test_Send_AfterClose_Unbuffered(t *testing.T) {
	ch := New[int](0)
	ch.Close()
	err := ch.Send(1)
	assert.ErrorIs(t, err, ErrClosedSend)
}

func Test_Receive_ClosedAndEmpty_ReturnsFalse(t *testing.T) {
	ch := New[int](2)
	ch.Close()
	_, ok := ch.Receive()
	assert.False(t, ok)
}

// Close wakes everyone: a receiver blocked before close completes
// promptly.
func Test_Close_WakesBlockedReceiver(t *testing.T) {
	ch := New[int](0)

	done := make(chan bool, 1)
	go func() {
		_, ok := ch.Receive()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake up within 1s of close")
	}
}

// Conservation + no-duplication/no-loss across many producers and
// consumers on a buffered channel.
func Test_Buffered_Conservation_MultiProducerConsumer(t *testing.T) {
	const (
		numProducers     = 6
		numConsumers     = 6
		itemsPerProducer = 2000
	)

	ch := New[int](64)

	var producerWG, consumerWG sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]int)

	producerWG.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(base int) {
			defer producerWG.Done()
			for i := 0; i < itemsPerProducer; i++ {
				require.NoError(t, ch.Send(base+i))
			}
		}(p * itemsPerProducer)
	}

	consumerWG.Add(numConsumers)
	for c := 0; c < numConsumers; c++ {
		go func() {
			defer consumerWG.Done()
			for {
				v, ok := ch.Receive()
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	producerWG.Wait()
	ch.Close()
	consumerWG.Wait()

	assert.Len(t, seen, numProducers*itemsPerProducer)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

// Buffer bound: sent-minus-received is always within [0, capacity].
func Test_Buffered_BufferBound(t *testing.T) {
	const capacity = 5
	ch := New[int](capacity)

	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if !ch.TrySend(i) {
				continue
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		ch.mu.Lock()
		inFlight := len(ch.buffer)
		ch.mu.Unlock()
		assert.GreaterOrEqual(t, inFlight, 0)
		assert.LessOrEqual(t, inFlight, capacity)

		ch.TryReceive()
	}

	close(stop)
	wg.Wait()
}

func Test_AddNotifier_RemoveStopsFutureSignals(t *testing.T) {
	ch := New[int](1)

	var count int
	var mu sync.Mutex
	n := notifyFunc(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	remove := ch.AddNotifier(n)
	require.NoError(t, ch.Send(1))

	mu.Lock()
	afterFirst := count
	mu.Unlock()
	assert.Equal(t, 1, afterFirst)

	remove()

	_, _ = ch.TryReceive()
	require.NoError(t, ch.Send(2))

	mu.Lock()
	afterSecond := count
	mu.Unlock()
	assert.Equal(t, afterFirst, afterSecond)
}

type notifyFunc func()

func (f notifyFunc) Notify() { f() }
