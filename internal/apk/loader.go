package apk

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dexlens/dexlens/internal/elf"
	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
)

// Loaded is the result of Load: a fully populated program model plus
// a symbol oracle over the archive's native libraries. Nothing in this
// module consults Natives itself; it is exposed for callers.
type Loaded struct {
	Context *model.Context
	Natives elf.SymbolOracle
	// Logger carries the analysis_id correlation field Load stamped on
	// entry, so every later log line emitted against this archive
	// (ingestion, emulation, flow analysis) can be grepped out of a
	// shared log stream by the one run that produced it.
	Logger *zap.Logger
}

// Load opens the APK at path, parses every classes.dex/classesN.dex it
// finds into ctx (primary dex first), and wraps its lib/**/*.so
// entries behind an in-memory elf.SymbolOracle. A dex file that fails
// to parse is recorded on ctx.ParseErrors and does not abort the rest
// of the archive, per the ingestion policy pkg/model itself already
// follows for a multi-dex context. Load fails outright when the file
// cannot be opened or stat'ed, when it is not a readable ZIP (including
// an entry that fails to decompress), or when AddDexFile rejects a
// parsed dex file.
func Load(path string, logger *zap.Logger) (*Loaded, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("analysis_id", uuid.NewString()))

	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "apk: opening %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "apk: stat %s", path)
	}

	arc, err := Open(f, info.Size())
	if err != nil {
		return nil, err
	}

	ctx := model.NewContext()
	for _, entry := range arc.Dex {
		df, err := dex.Parse(entry.Data)
		if err != nil {
			logger.Warn("apk: dex parse failed, skipping member",
				zap.String("entry", entry.Name), zap.Error(err))
			ctx.ParseErrors = multierror.Append(ctx.ParseErrors, fmt.Errorf("apk: %s: %w", entry.Name, err))
			continue
		}
		if err := ctx.AddDexFile(entry.Name, df); err != nil {
			return nil, pkgerrors.Wrapf(err, "apk: registering %s", entry.Name)
		}
	}

	libs := make(map[string][]byte, len(arc.Libs))
	for _, lib := range arc.Libs {
		libs[lib.Name] = lib.Data
	}

	return &Loaded{Context: ctx, Natives: elf.NewMemOracle(libs), Logger: logger}, nil
}
