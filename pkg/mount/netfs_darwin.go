//go:build darwin && cgo

package mount

/*
#cgo LDFLAGS: -framework CoreFoundation -framework NetFS
#include <stdlib.h>
#include <errno.h>
#include <CoreFoundation/CoreFoundation.h>
#include <NetFS/NetFS.h>

static CFStringRef cfstring(const char *s) {
	if (s == NULL || s[0] == '\0') {
		return NULL;
	}
	return CFStringCreateWithCString(kCFAllocatorDefault, s, kCFStringEncodingUTF8);
}

static int depotfs_mount_url_sync(const char *url, const char *username,
	const char *password, int no_ui, int allow_submounts,
	CFArrayRef *mountpoints) {
	CFStringRef url_str = cfstring(url);
	if (url_str == NULL) {
		return EINVAL;
	}
	CFURLRef share_url = CFURLCreateWithString(kCFAllocatorDefault, url_str, NULL);
	CFRelease(url_str);
	if (share_url == NULL) {
		return EINVAL;
	}

	CFStringRef user = cfstring(username);
	CFStringRef passwd = cfstring(password);

	CFMutableDictionaryRef open_options = CFDictionaryCreateMutable(
		kCFAllocatorDefault, 0,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	if (no_ui) {
		CFDictionarySetValue(open_options, kNAUIOptionKey, kNAUIOptionNoUI);
	}

	CFMutableDictionaryRef mount_options = CFDictionaryCreateMutable(
		kCFAllocatorDefault, 0,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	if (allow_submounts) {
		CFDictionarySetValue(mount_options, kNetFSAllowSubMountsKey, kCFBooleanTrue);
	}

	int result = NetFSMountURLSync(share_url, NULL, user, passwd,
		open_options, mount_options, mountpoints);

	CFRelease(share_url);
	if (user != NULL) {
		CFRelease(user);
	}
	if (passwd != NULL) {
		CFRelease(passwd);
	}
	CFRelease(open_options);
	CFRelease(mount_options);
	return result;
}

static int depotfs_mountpoint_count(CFArrayRef mountpoints) {
	if (mountpoints == NULL) {
		return 0;
	}
	return (int)CFArrayGetCount(mountpoints);
}

static int depotfs_mountpoint_at(CFArrayRef mountpoints, int index,
	char *buf, int buflen) {
	CFStringRef mp = (CFStringRef)CFArrayGetValueAtIndex(mountpoints, index);
	if (mp == NULL) {
		return -1;
	}
	if (!CFStringGetCString(mp, buf, buflen, kCFStringEncodingUTF8)) {
		return -1;
	}
	return 0;
}
*/
import "C"

import (
	"context"
	"unsafe"
)

// netfsClient is the real NetFS-backed client. The mount call is fully
// synchronous; a cancelled context is only observed before the call starts.
type netfsClient struct{}

// newPlatformClient reports the native mount facility on macOS.
func newPlatformClient() NetFSClient {
	return &netfsClient{}
}

func (c *netfsClient) MountURLSync(ctx context.Context, shareURL, username, password string, opts MountOptions) (int32, []string, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	curl := C.CString(shareURL)
	cuser := C.CString(username)
	cpass := C.CString(password)
	defer C.free(unsafe.Pointer(curl))
	defer C.free(unsafe.Pointer(cuser))
	defer C.free(unsafe.Pointer(cpass))

	noUI := C.int(0)
	if opts.NoUI {
		noUI = 1
	}
	allowSubMounts := C.int(0)
	if opts.AllowSubMounts {
		allowSubMounts = 1
	}

	var mountpoints C.CFArrayRef
	result := C.depotfs_mount_url_sync(curl, cuser, cpass, noUI, allowSubMounts, &mountpoints)

	var paths []string
	if mountpoints != 0 {
		defer C.CFRelease(C.CFTypeRef(mountpoints))

		count := int(C.depotfs_mountpoint_count(mountpoints))
		buf := make([]byte, 4096)
		for i := 0; i < count; i++ {
			if C.depotfs_mountpoint_at(mountpoints, C.int(i), (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf))) != 0 {
				continue
			}
			paths = append(paths, C.GoString((*C.char)(unsafe.Pointer(&buf[0]))))
		}
	}

	return int32(result), paths, nil
}
